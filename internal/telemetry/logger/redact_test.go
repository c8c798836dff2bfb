package logger

import (
	"testing"
)

const sampleCode = "vlrc_ABCDEFGHIJKLMNOPQRSTUV"

func TestRedactSensitive_RecoverCode(t *testing.T) {
	l, buf := newTestLogger(t, "info", "json")

	// Prefix masking applies regardless of the key name.
	l.Info("code issued", "code", sampleCode, "token", sampleCode)

	entry := decodeEntry(t, buf)
	for _, k := range []string{"code", "token"} {
		if entry[k] != "vlrc_ABC...TUV" {
			t.Errorf("%s = %v, want vlrc_ABC...TUV", k, entry[k])
		}
	}
}

func TestRedactSensitive_KeyNames(t *testing.T) {
	l, buf := newTestLogger(t, "info", "json")

	tests := []struct {
		key, value, expected string
	}{
		{"password", "hunter2", "***REDACTED***"},
		{"encryption_key", "c2VjcmV0", "***REDACTED***"},
		{"auth_token", "bearer-xyz", "***REDACTED***"},
		{"session_id", "s1", "s1"},
		{"vault_id", "vault-aa", "vault-aa"},
		{"origin", "https://dapp.example", "https://dapp.example"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			entry := decodeEntry(t, buf)
			if entry[tt.key] != tt.expected {
				t.Errorf("%s = %v, want %q", tt.key, entry[tt.key], tt.expected)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	l, buf := newTestLogger(t, "info", "json")

	Slog(l).WithGroup("metadata").Info("grouped", "code", sampleCode)

	entry := decodeEntry(t, buf)
	group, ok := entry["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata group missing: %v", entry)
	}
	if group["code"] != "vlrc_ABC...TUV" {
		t.Errorf("metadata.code = %v", group["code"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{sampleCode, "vlrc_ABC...TUV"},
		{"vlrc_ABCDEF", "vlrc_***"},
		{"vlrc_AB", "vlrc_***"},
		{"vlda-01hx", "vlda-01hx"},
		{"normalvalue123", "normalvalue123"},
	}

	for _, tt := range tests {
		if got := RedactString(tt.input); got != tt.expected {
			t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsSensitive(t *testing.T) {
	keys := map[string]bool{
		"password":    true,
		"API_SECRET":  true,
		"storage_key": true,
		"bearer":      true,
		"session_id":  false,
		"request_id":  false,
		"vault":       false,
		"tx_blocked":  false,
	}
	for k, want := range keys {
		if got := IsSensitiveKey(k); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", k, got, want)
		}
	}

	if !IsSensitiveValue(sampleCode) || IsSensitiveValue("vlda-01hx") || IsSensitiveValue("") {
		t.Error("IsSensitiveValue misclassified a value")
	}
}
