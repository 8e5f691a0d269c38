package mpd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadGreeting is returned (inside a ConnectError) when the first line
	// sent by the server does not start with "OK".
	ErrBadGreeting = errors.New("unexpected greeting")

	// ErrNoResponse is returned (inside a ProtocolError) when the server closed
	// the connection before sending anything.
	ErrNoResponse = errors.New("empty response")

	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("connection closed")
)

// ConnectError reports a failure to establish a usable control connection:
// address resolution, dialing, or a bad greeting. It is fatal at startup.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError reports a failed command/response cycle on an established
// connection. Callers recover from it locally.
type ProtocolError struct {
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mpd %q: %v", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// CommandError is an "ACK [code@index] {command} message" reply.
type CommandError struct {
	Code    int
	Index   int
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ack %d@%d {%s}: %s", e.Code, e.Index, e.Command, e.Message)
}

// parseAck parses the remainder of an ACK line. Unparsable input still yields
// a CommandError carrying the raw text as its message.
func parseAck(line string) *CommandError {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "ACK"))
	ce := &CommandError{Message: rest}

	if !strings.HasPrefix(rest, "[") {
		return ce
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return ce
	}
	code, idx, ok := strings.Cut(rest[1:end], "@")
	if ok {
		ce.Code, _ = strconv.Atoi(code)
		ce.Index, _ = strconv.Atoi(idx)
	}
	rest = strings.TrimSpace(rest[end+1:])

	if strings.HasPrefix(rest, "{") {
		if j := strings.IndexByte(rest, '}'); j >= 0 {
			ce.Command = rest[1:j]
			rest = strings.TrimSpace(rest[j+1:])
		}
	}
	ce.Message = rest
	return ce
}
