package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func render(t *testing.T, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Scalars(t *testing.T) {
	tests := []struct {
		data any
		want string
	}{
		{"0xaaa", "0xaaa\n"},
		{true, "true\n"},
		{42, "42\n"},
		{"", "-\n"},
	}
	for _, tt := range tests {
		if got := render(t, tt.data); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.data, got, tt.want)
		}
	}
	if got := render(t, nil); got != "" {
		t.Errorf("Format(nil) = %q", got)
	}
}

func TestTableFormatter_StringSlice(t *testing.T) {
	if got := render(t, []string{"0xaaa", "0xbbb"}); got != "0xaaa\n0xbbb\n" {
		t.Errorf("Format() = %q", got)
	}
	if got := render(t, []string{}); got != "" {
		t.Errorf("Format(empty) = %q", got)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	out := render(t, newSample())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "FIELD") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"sessionId", "0xaaa, 0xbbb", "currentVault.address"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("json:\"-\" field rendered")
	}

	// Pointers render like values.
	s := newSample()
	if got := render(t, &s); got != out {
		t.Errorf("pointer output differs:\n%s", got)
	}
}

func TestTableFormatter_Map(t *testing.T) {
	out := render(t, map[string]int{"b": 2, "a": 1})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "a") || !strings.HasPrefix(lines[2], "b") {
		t.Errorf("map not sorted:\n%s", out)
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{NoHeaders: true}
	if err := f.Format(&buf, map[string]string{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "KEY") {
		t.Errorf("headers rendered: %q", buf.String())
	}
}

func TestTable_Render(t *testing.T) {
	tbl := &Table{Headers: []string{"A", "B"}}
	tbl.AddRow("1", "2")
	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "A  B\n1  2\n" {
		t.Errorf("Render() = %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *string
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil pointer", nilPtr, "-"},
		{"zero time", time.Time{}, "-"},
		{"time", ts, ts.Local().Format(time.RFC3339)},
		{"empty slice", []int{}, "-"},
		{"ints", []int{1, 2}, "1, 2"},
		{"struct", struct{ ID, Address string }{"v1", "0xaaa"}, "{v1 0xaaa}"},
		{"map", map[string]int{"a": 1}, "{1 keys}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
