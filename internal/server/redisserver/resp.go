package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

const (
	// DefaultMaxBulkLen is the argument size limit when values are unbounded.
	DefaultMaxBulkLen = 8 << 20
	// minBulkLen keeps keys and short arguments readable under tiny value
	// limits.
	minBulkLen = 64 << 10

	headerLen = 32
)

// Limits bounds a single request. A request over any of them is answered
// with a protocol error and the connection is closed.
type Limits struct {
	// MaxArgs bounds the number of arguments, command name included.
	MaxArgs int
	// MaxBulk bounds one argument in bytes.
	MaxBulk int
	// MaxInline bounds an inline command line in bytes.
	MaxInline int
}

// DefaultLimits returns the limits used for zero Config fields.
func DefaultLimits() Limits {
	return Limits{MaxArgs: 1024, MaxBulk: DefaultMaxBulkLen, MaxInline: 4 << 10}
}

// BulkLimit returns the argument limit for a store that caps values at
// maxValue bytes. Non-positive maxValue means values are unbounded.
//
// Values slightly over maxValue still reach the service and are rejected
// with a domain error; only grossly oversized arguments drop the connection.
func BulkLimit(maxValue int) int {
	if maxValue <= 0 {
		return DefaultMaxBulkLen
	}
	return max(2*maxValue, minBulkLen)
}

type decoder struct {
	r   *bufio.Reader
	lim Limits
}

// command reads one request: a multibulk array or an inline line. Empty
// requests yield nil.
func (d *decoder) command() ([][]byte, error) {
	c, err := d.r.Peek(1)
	if err != nil {
		return nil, err
	}
	if c[0] != '*' {
		return d.inline()
	}

	n, err := d.header('*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > d.lim.MaxArgs {
		return nil, fmt.Errorf("%w: %d arguments, max %d", ErrLimitExceeded, n, d.lim.MaxArgs)
	}

	args := make([][]byte, n)
	for i := range args {
		if args[i], err = d.bulk(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (d *decoder) inline() ([][]byte, error) {
	line, err := d.line(d.lim.MaxInline)
	if err != nil {
		return nil, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) > d.lim.MaxArgs {
		return nil, fmt.Errorf("%w: %d arguments, max %d", ErrLimitExceeded, len(fields), d.lim.MaxArgs)
	}
	return fields, nil
}

func (d *decoder) bulk() ([]byte, error) {
	n, err := d.header('$')
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: null argument", ErrProtocol)
	}
	if n > d.lim.MaxBulk {
		return nil, fmt.Errorf("%w: argument of %d bytes, max %d", ErrLimitExceeded, n, d.lim.MaxBulk)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: argument not terminated by CRLF", ErrProtocol)
	}
	return buf[:n:n], nil
}

// header reads a "<kind><int>" line.
func (d *decoder) header(kind byte) (int, error) {
	line, err := d.line(headerLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != kind {
		return 0, fmt.Errorf("%w: expected '%c', got %q", ErrProtocol, kind, line)
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

// line reads up to CRLF and returns the line without it.
func (d *decoder) line(limit int) ([]byte, error) {
	var line []byte
	for {
		frag, err := d.r.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > limit+2 {
			return nil, fmt.Errorf("%w: line over %d bytes", ErrLimitExceeded, limit)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: line not terminated by CRLF", ErrProtocol)
	}
	return line[:len(line)-2], nil
}

// encoder writes RESP2 replies. Errors surface on Flush.
type encoder struct {
	*bufio.Writer
}

func (e encoder) status(s string) {
	e.WriteByte('+')
	e.WriteString(s)
	e.WriteString("\r\n")
}

// fail writes an error reply. msg starts with its error class, e.g. ERR.
func (e encoder) fail(msg string) {
	e.WriteByte('-')
	e.WriteString(msg)
	e.WriteString("\r\n")
}

func (e encoder) integer(n int64) {
	e.prefixed(':', n)
}

// bulk writes b; nil is the null bulk string.
func (e encoder) bulk(b []byte) {
	if b == nil {
		e.WriteString("$-1\r\n")
		return
	}
	e.prefixed('$', int64(len(b)))
	e.Write(b)
	e.WriteString("\r\n")
}

func (e encoder) bulkString(s string) {
	e.prefixed('$', int64(len(s)))
	e.WriteString(s)
	e.WriteString("\r\n")
}

func (e encoder) array(n int) {
	e.prefixed('*', int64(n))
}

func (e encoder) prefixed(kind byte, n int64) {
	var buf [24]byte
	b := append(buf[:0], kind)
	b = strconv.AppendInt(b, n, 10)
	e.Write(append(b, '\r', '\n'))
}

func commandName(b []byte) string {
	return string(bytes.ToUpper(b))
}
