// Package mpd is a minimal client for MPD's line-oriented control protocol.
// It covers exactly what the orchestrator needs: connect and validate the
// greeting, run one command at a time, and keep the connection alive.
package mpd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	greetingPrefix = "OK"
	responseOK     = "OK"
	ackPrefix      = "ACK "
)

// Client owns a single control connection. Commands are serialized with a
// mutex because MPD handles one outstanding command per connection.
type Client struct {
	addr string

	mu      sync.Mutex
	conn    net.Conn
	r       *bufio.Reader
	closed  bool
	version string
}

// Dial connects to addr ("host:port") and validates the server greeting.
// Every failure is returned as a *ConnectError.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	return c, nil
}

// NewClient wraps an already established connection and reads the greeting.
func NewClient(conn net.Conn) (*Client, error) {
	c := &Client{
		addr: conn.RemoteAddr().String(),
		conn: conn,
		r:    bufio.NewReader(conn),
	}

	line, err := c.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrNoResponse
		}
		return nil, &ConnectError{Addr: c.addr, Err: fmt.Errorf("read greeting: %w", err)}
	}
	if !strings.HasPrefix(line, greetingPrefix) {
		return nil, &ConnectError{Addr: c.addr, Err: fmt.Errorf("%w: %q", ErrBadGreeting, line)}
	}
	c.version = strings.TrimSpace(strings.TrimPrefix(line, "OK MPD"))
	return c, nil
}

// Version is the protocol version announced in the greeting, e.g. "0.21".
func (c *Client) Version() string {
	return c.version
}

// Addr is the remote address of the control connection.
func (c *Client) Addr() string {
	return c.addr
}

// Query sends cmd and reads the response up to its OK/ACK terminator.
// Failures are returned as *ProtocolError; an ACK reply wraps a *CommandError.
// Cancelling ctx aborts the exchange and closes the connection, since the
// unread remainder of the response would desynchronize later commands.
func (c *Client) Query(ctx context.Context, cmd string) (Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &ProtocolError{Command: cmd, Err: ErrClosed}
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	attrs, err := c.roundTrip(cmd)
	if !stop() {
		c.closeLocked()
		return nil, &ProtocolError{Command: cmd, Err: ctx.Err()}
	}
	if err != nil {
		return nil, &ProtocolError{Command: cmd, Err: err}
	}
	return attrs, nil
}

// Ping sends the no-op "ping" command.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "ping")
	return err
}

// KeepAlive pings the server every interval until ctx is done. MPD drops
// clients that stay silent longer than its connection_timeout, and the
// orchestrator does not poll while a session is rendering. A nil log
// discards failures.
func (c *Client) KeepAlive(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Ping(ctx); err != nil && ctx.Err() == nil {
				log.Warn("mpd keep-alive failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Close sends "close" as a courtesy and shuts the connection down. It is safe
// to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	io.WriteString(c.conn, "close\n")
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) roundTrip(cmd string) (Attrs, error) {
	defer c.conn.SetDeadline(time.Time{})

	if _, err := io.WriteString(c.conn, cmd+"\n"); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	attrs := make(Attrs)
	for n := 0; ; n++ {
		line, err := c.readLine()
		if err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				return nil, ErrNoResponse
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		switch {
		case line == responseOK:
			return attrs, nil
		case strings.HasPrefix(line, ackPrefix):
			return nil, parseAck(line)
		}
		if k, v, ok := ParseLine(line); ok {
			attrs[k] = v
		}
	}
}

// readLine reads one full line regardless of length, without the trailing
// newline. A partial line followed by EOF is reported as io.ErrUnexpectedEOF.
func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
