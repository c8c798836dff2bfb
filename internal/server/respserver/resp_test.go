package respserver

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{name: "array ping", input: "*1\r\n$4\r\nPING\r\n", want: []string{"PING"}},
		{name: "subscribe two rooms", input: "*3\r\n$9\r\nSUBSCRIBE\r\n$2\r\ns1\r\n$2\r\ns2\r\n", want: []string{"SUBSCRIBE", "s1", "s2"}},
		{name: "empty array", input: "*0\r\n", want: nil},
		{name: "null array", input: "*-1\r\n", want: nil},
		{name: "inline", input: "subscribe  room-1\r\n", want: []string{"subscribe", "room-1"}},
		{name: "blank inline", input: "   \r\n", want: nil},
		{name: "bad array length", input: "*x\r\n", wantErr: ErrProtocol},
		{name: "missing bulk", input: "*1\r\n:1\r\n", wantErr: ErrProtocol},
		{name: "bad terminator", input: "*1\r\n$4\r\nPINGxx", wantErr: ErrProtocol},
		{name: "missing CRLF", input: "PING\n", wantErr: ErrProtocol},
		{name: "array too long", input: "*100000\r\n", wantErr: ErrLimitExceeded},
		{name: "bulk too long", input: "*1\r\n$99999\r\n", wantErr: ErrLimitExceeded},
		{name: "inline too long", input: strings.Repeat("a", MaxInlineLen+10) + "\r\n", wantErr: ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCommand() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ReadCommand() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if string(got[i]) != tt.want[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadCommand_Pipeline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("*1\r\n$4\r\nPING\r\nQUIT\r\n"))
	for _, want := range []string{"PING", "QUIT"} {
		args, err := ReadCommand(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(args[0]) != want {
			t.Errorf("got %q, want %q", args[0], want)
		}
	}
}

func TestWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer) error
		want  string
	}{
		{"simple", func(w *Writer) error { return w.SimpleString("OK") }, "+OK\r\n"},
		{"error", func(w *Writer) error { return w.Error("ERR bad") }, "-ERR bad\r\n"},
		{"integer", func(w *Writer) error { return w.Integer(-3) }, ":-3\r\n"},
		{"bulk", func(w *Writer) error { return w.BulkString("hi") }, "$2\r\nhi\r\n"},
		{"null bulk", func(w *Writer) error { return w.Bulk(nil) }, "$-1\r\n"},
		{"empty bulk", func(w *Writer) error { return w.Bulk([]byte{}) }, "$0\r\n\r\n"},
		{
			"subscribe reply",
			func(w *Writer) error { return w.SubscriptionReply("subscribe", "s1", 1) },
			"*3\r\n$9\r\nsubscribe\r\n$2\r\ns1\r\n:1\r\n",
		},
		{
			"unsubscribe nothing",
			func(w *Writer) error { return w.SubscriptionReply("unsubscribe", "", 0) },
			"*3\r\n$11\r\nunsubscribe\r\n$-1\r\n:0\r\n",
		},
		{
			"message",
			func(w *Writer) error { return w.Message("s1", []byte(`{}`)) },
			"*3\r\n$7\r\nmessage\r\n$2\r\ns1\r\n$2\r\n{}\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := tt.write(w); err != nil {
				t.Fatal(err)
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
