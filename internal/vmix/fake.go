// internal/vmix/fake.go
package vmix

import (
	"bufio"
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// VersionBanner is what the fake server greets every connection with.
const VersionBanner = "VERSION OK 23.0.0.35"

// FakeServer speaks enough of the vMix TCP API to drive a tally client on
// the bench or in tests. Subscribed connections receive the current state
// right after SUBSCRIBE OK and again on every SetState.
type FakeServer struct {
	ln  net.Listener
	log log.FieldLogger

	mu     sync.Mutex
	state  string
	conns  map[net.Conn]bool // value: subscribed
	closed bool
	wg     sync.WaitGroup
}

// NewFakeServer listens on addr (":8099", "127.0.0.1:0", ...).
func NewFakeServer(addr string, logger log.FieldLogger) (*FakeServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &FakeServer{
		ln:    ln,
		log:   logger.WithField("component", "fake-vmix"),
		conns: make(map[net.Conn]bool),
	}, nil
}

// Addr is the bound listen address.
func (s *FakeServer) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or Close is called.
func (s *FakeServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conns[conn] = false
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *FakeServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.forget(conn)

	l := s.log.WithField("peer", conn.RemoteAddr().String())
	l.Info("client connected")

	s.mu.Lock()
	err := writeLine(conn, VersionBanner)
	s.mu.Unlock()
	if err != nil {
		return
	}

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		l.WithField("cmd", cmd).Debug("<")

		if cmd != strings.TrimSpace(SubscribeCommand) {
			l.WithField("cmd", cmd).Warn("unknown command")
			continue
		}

		s.mu.Lock()
		s.conns[conn] = true
		err = writeLine(conn, SubscribeOK)
		if err == nil && s.state != "" {
			err = writeLine(conn, FormatTally(s.state))
		}
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
	l.Info("client disconnected")
}

func (s *FakeServer) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// SetState stores the per-source state string and sends it to every
// subscribed connection.
func (s *FakeServer) SetState(states string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = states
	line := FormatTally(states)
	for conn, subscribed := range s.conns {
		if !subscribed {
			continue
		}
		if err := writeLine(conn, line); err != nil {
			s.log.WithError(err).Warn("send failed")
			_ = conn.Close()
		}
	}
}

// Subscribers counts connections that have sent SUBSCRIBE TALLY.
func (s *FakeServer) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, subscribed := range s.conns {
		if subscribed {
			n++
		}
	}
	return n
}

// DropClients closes every open client connection and keeps listening.
func (s *FakeServer) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// Close stops the listener and drops all clients.
func (s *FakeServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func writeLine(conn net.Conn, line string) error {
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

// RandomState builds a state string for n inputs with one random program
// source and one random preview source. Program wins when both pick the
// same input.
func RandomState(rnd *rand.Rand, n int) string {
	if n <= 0 {
		return ""
	}
	b := []byte(strings.Repeat("0", n))
	b[rnd.Intn(n)] = charPreview
	b[rnd.Intn(n)] = charProgram
	return string(b)
}
