// internal/vmix/client.go
package vmix

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrIdle is returned by ReadLine when the read deadline passed without a
// complete line. The connection is still usable; callers treat it as a
// polling point, not as a connection loss.
var ErrIdle = errors.New("vmix: no complete line before read deadline")

// maxLine bounds a buffered partial line. A report for every source fits
// comfortably.
const maxLine = 4096

// Config is minimal transport config.
type Config struct {
	Host        string
	Port        int
	DialTimeout time.Duration

	// ReadTimeout bounds every ReadLine call. Zero means block until data.
	ReadTimeout time.Duration
}

// Client is one TCP connection to the vMix tally API.
type Client struct {
	conn        net.Conn
	r           *bufio.Reader
	readTimeout time.Duration
	pending     []byte
}

// Addr joins host and port the way Dial does.
func (cfg Config) Addr() string {
	port := cfg.Port
	if port == 0 {
		port = Port
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

// Dial makes exactly one connection attempt.
func Dial(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("vmix client: host required")
	}

	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.Dial("tcp", cfg.Addr())
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:        conn,
		r:           bufio.NewReader(conn),
		readTimeout: cfg.ReadTimeout,
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// RemoteAddr reports the peer address.
func (c *Client) RemoteAddr() string {
	if c == nil || c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// Subscribe sends the tally subscription command.
func (c *Client) Subscribe() error {
	if c.readTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.readTimeout))
	}
	if _, err := c.conn.Write([]byte(SubscribeCommand)); err != nil {
		return fmt.Errorf("vmix client: subscribe: %w", err)
	}
	return nil
}

// ReadLine returns the next line without its terminator.
// It returns ErrIdle when the read deadline passes first; any bytes already
// received are kept for the next call.
func (c *Client) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	chunk, err := c.r.ReadBytes('\n')
	if err == nil {
		line := chunk
		if len(c.pending) > 0 {
			line = append(c.pending, chunk...)
			c.pending = nil
		}
		return string(trimEOL(line)), nil
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		c.pending = append(c.pending, chunk...)
		if len(c.pending) > maxLine {
			c.pending = nil
		}
		return "", ErrIdle
	}

	return "", err
}

func trimEOL(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
