// internal/settings/store.go
package settings

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Persistence is the durable key/value blob store behind the settings.
// Put may block for an unbounded time; the store never calls it while
// holding its own lock.
type Persistence interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
}

// Options configures a Store.
type Options struct {
	Logger logrus.FieldLogger
}

// Store is the single authoritative DeviceSettings cell.
//
// Every setter compares and commits under a short critical section, releases
// it, and only then issues one durable write for an effective change.
// Persistence failures are logged; the in-memory value stays authoritative.
type Store struct {
	mu  sync.Mutex
	cur DeviceSettings

	p   Persistence
	log logrus.FieldLogger
}

// Open loads settings from p. Missing or malformed keys fall back to defaults,
// numeric values are clamped into range.
func Open(p Persistence, opts Options) *Store {
	if p == nil {
		panic("settings.Open: persistence is nil")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Store{
		cur: Defaults(),
		p:   p,
		log: opts.Logger.WithField("component", "settings"),
	}
	s.load()
	return s
}

func (s *Store) load() {
	if b, ok := s.read(KeyWlan); ok {
		if w, ok := decodeWlan(b); ok {
			s.cur.Wlan = w
		} else {
			s.log.WithField("key", KeyWlan).Warn("stored value malformed, using default")
		}
	}
	if b, ok := s.read(KeyLightAreas); ok {
		if v, ok := decodeU8(b); ok {
			s.cur.LightAreas = NewLightAreas(v)
		}
	}
	if b, ok := s.read(KeyBrightness); ok {
		if v, ok := decodeU8(b); ok {
			s.cur.Brightness = NewBrightness(v)
		}
	}
	if b, ok := s.read(KeyInput); ok {
		if v, ok := decodeU16(b); ok {
			s.cur.Input = NewInput(v)
		}
	}
}

func (s *Store) read(key string) ([]byte, bool) {
	b, ok, err := s.p.Get(key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings read failed, using default")
		return nil, false
	}
	return b, ok
}

// Get returns a consistent copy of all settings.
func (s *Store) Get() DeviceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// SetWlan commits new credentials. It reports whether anything changed.
func (s *Store) SetWlan(w WlanCredentials) bool {
	w.terminate()

	s.mu.Lock()
	changed := s.cur.Wlan != w
	if changed {
		s.cur.Wlan = w
	}
	s.mu.Unlock()

	if changed {
		s.persist(KeyWlan, encodeWlan(w))
	}
	return changed
}

// SetLightAreas commits a light area selection, clamped into range.
func (s *Store) SetLightAreas(v LightAreas) bool {
	v = NewLightAreas(int(v))

	s.mu.Lock()
	changed := s.cur.LightAreas != v
	if changed {
		s.cur.LightAreas = v
	}
	s.mu.Unlock()

	if changed {
		s.persist(KeyLightAreas, encodeU8(uint8(v)))
	}
	return changed
}

// SetBrightness commits a brightness, clamped into range.
func (s *Store) SetBrightness(v Brightness) bool {
	v = NewBrightness(int(v))

	s.mu.Lock()
	changed := s.cur.Brightness != v
	if changed {
		s.cur.Brightness = v
	}
	s.mu.Unlock()

	if changed {
		s.persist(KeyBrightness, encodeU8(uint8(v)))
	}
	return changed
}

// SetInput commits the followed input, clamped into range.
func (s *Store) SetInput(v Input) bool {
	v = NewInput(int(v))

	s.mu.Lock()
	changed := s.cur.Input != v
	if changed {
		s.cur.Input = v
	}
	s.mu.Unlock()

	if changed {
		s.persist(KeyInput, encodeU16(uint16(v)))
	}
	return changed
}

// persist must be called without s.mu held.
func (s *Store) persist(key string, blob []byte) {
	if err := s.p.Put(key, blob); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("durable write failed, value kept in memory only")
	}
}
