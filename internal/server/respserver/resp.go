package respserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a command array.
	MaxArrayLen = 256

	// MaxBulkLen limits a single bulk string. Room names are session ids.
	MaxBulkLen = 4 * 1024

	// MaxInlineLen limits an inline command line.
	MaxInlineLen = 4 * 1024

	maxHeaderLen = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline command line. An empty command yields nil args.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '*' {
		return readArray(r)
	}

	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}
	return args, nil
}

func readArray(r *bufio.Reader) ([][]byte, error) {
	n, err := readHeader(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	args := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func readBulk(r *bufio.Reader) ([]byte, error) {
	n, err := readHeader(r, '$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	case n > MaxBulkLen:
		return nil, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n], nil
}

// readHeader reads a "<kind><int>\r\n" line.
func readHeader(r *bufio.Reader, kind byte) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != kind {
		return 0, fmt.Errorf("%w: expected '%c'", ErrProtocol, kind)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length", ErrProtocol)
	}
	return n, nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLen+2 {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrLimitExceeded, maxLen)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// Writer encodes RESP2 replies.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Flush writes buffered data.
func (w *Writer) Flush() error { return w.bw.Flush() }

// SimpleString writes "+s".
func (w *Writer) SimpleString(s string) error {
	_, err := w.bw.WriteString("+" + s + "\r\n")
	return err
}

// Error writes "-s".
func (w *Writer) Error(s string) error {
	_, err := w.bw.WriteString("-" + s + "\r\n")
	return err
}

// Integer writes ":n".
func (w *Writer) Integer(n int64) error {
	_, err := w.bw.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

// Bulk writes a bulk string; nil writes the null bulk string.
func (w *Writer) Bulk(b []byte) error {
	if b == nil {
		_, err := w.bw.WriteString("$-1\r\n")
		return err
	}
	if _, err := w.bw.WriteString("$" + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	_, err := w.bw.WriteString("\r\n")
	return err
}

// BulkString writes s as a bulk string.
func (w *Writer) BulkString(s string) error {
	return w.Bulk([]byte(s))
}

// ArrayHeader writes "*n".
func (w *Writer) ArrayHeader(n int) error {
	_, err := w.bw.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// SubscriptionReply writes a subscribe/unsubscribe confirmation. An empty
// room is encoded as the null bulk string.
func (w *Writer) SubscriptionReply(kind, room string, count int) error {
	if err := w.ArrayHeader(3); err != nil {
		return err
	}
	if err := w.BulkString(kind); err != nil {
		return err
	}
	var r []byte
	if room != "" {
		r = []byte(room)
	}
	if err := w.Bulk(r); err != nil {
		return err
	}
	return w.Integer(int64(count))
}

// Message writes a pub/sub push.
func (w *Writer) Message(room string, payload []byte) error {
	if err := w.ArrayHeader(3); err != nil {
		return err
	}
	if err := w.BulkString("message"); err != nil {
		return err
	}
	if err := w.BulkString(room); err != nil {
		return err
	}
	return w.Bulk(payload)
}

func commandName(b []byte) string {
	return strings.ToUpper(string(b))
}
