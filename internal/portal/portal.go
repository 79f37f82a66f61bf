// internal/portal/portal.go
package portal

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/settings"
)

//go:embed assets/index.html assets/oubs.png
var embedded embed.FS

// Options tunes the portal.
type Options struct {
	// StaticDir replaces the embedded index.html and oubs.png when set.
	StaticDir string

	Logger log.FieldLogger
}

// Portal is the configuration web surface served while the access point is up.
type Portal struct {
	store  *settings.Store
	assets fs.FS
	log    log.FieldLogger
	router *mux.Router
}

// New builds the portal routes over store.
func New(store *settings.Store, opts Options) (*Portal, error) {
	var assets fs.FS
	if opts.StaticDir != "" {
		st, err := os.Stat(opts.StaticDir)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			return nil, &fs.PathError{Op: "portal", Path: opts.StaticDir, Err: fs.ErrInvalid}
		}
		assets = os.DirFS(opts.StaticDir)
	} else {
		sub, err := fs.Sub(embedded, "assets")
		if err != nil {
			return nil, err
		}
		assets = sub
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	p := &Portal{
		store:  store,
		assets: assets,
		log:    logger.WithField("component", "portal"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/get_ssid", p.getField(settings.WlanCredentials.SSIDString)).Methods("GET")
	r.HandleFunc("/get_pass", p.getField(settings.WlanCredentials.PassString)).Methods("GET")
	r.HandleFunc("/get_host", p.getField(settings.WlanCredentials.HostString)).Methods("GET")
	r.HandleFunc("/save", p.save).Methods("POST")
	r.HandleFunc("/", p.static("index.html", "text/html")).Methods("GET", "HEAD")
	r.HandleFunc("/oubs.png", p.static("oubs.png", "image/png")).Methods("GET", "HEAD")

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	p.router = r
	return p, nil
}

func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// ---- handlers ----

// getField answers with the raw stored value. The page only ever puts it
// into an input's value, so no escaping is applied.
func (p *Portal) getField(get func(settings.WlanCredentials) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, get(p.store.Get().Wlan))
	}
}

// save applies every present field that fits. Oversize fields are left
// unchanged, absent fields likewise.
func (p *Portal) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.log.WithError(err).Warn("bad save form")
	}

	creds := p.store.Get().Wlan
	fields := []struct {
		key string
		set func(string) bool
	}{
		{"ssid", creds.SetSSID},
		{"pass", creds.SetPass},
		{"host", creds.SetHost},
	}
	for _, f := range fields {
		vals, ok := r.Form[f.key]
		if !ok || len(vals) == 0 {
			continue
		}
		if !f.set(vals[0]) {
			p.log.WithFields(log.Fields{"field": f.key, "len": len(vals[0])}).Warn("value too long, ignored")
		}
	}

	if p.store.SetWlan(creds) {
		p.log.WithField("ssid", creds.SSIDString()).Info("wlan settings saved")
	}

	w.Header().Set("Location", "/")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusFound)
	_, _ = io.WriteString(w, "Redirected to: /")
}

func (p *Portal) static(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fs.ReadFile(p.assets, name)
		if err != nil {
			p.log.WithError(err).WithField("file", name).Warn("static file missing")
			notFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(b)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Not found")
}
