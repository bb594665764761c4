package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		maxLength int
		want      string
	}{
		{name: "empty", in: "", maxLength: 100, want: ""},
		{name: "clean passthrough", in: "/api/v1/clients/", maxLength: 100, want: "/api/v1/clients/"},
		{name: "control chars stripped", in: "abc\x00def\x1b[0m", maxLength: 100, want: "abcdef[0m"},
		{name: "newline kept", in: "line1\nline2", maxLength: 100, want: "line1\nline2"},
		{name: "truncated", in: strings.Repeat("x", 20), maxLength: 10, want: strings.Repeat("x", 10) + "..."},
		{name: "zero max falls back", in: strings.Repeat("y", MaxGeneralStringLength+10), maxLength: 0, want: strings.Repeat("y", MaxGeneralStringLength) + "..."},
		{name: "invalid utf8 repaired", in: "path\xff\xfeok", maxLength: 100, want: "pathok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	long := "/api/v1/" + strings.Repeat("a", MaxPathLength)
	got := SanitizePath(long)
	if len(got) != MaxPathLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("SanitizePath() length = %d", len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q, want empty", got)
	}
	if got := SanitizeError(errors.New("pq: duplicate key\x00 value")); got != "pq: duplicate key value" {
		t.Errorf("SanitizeError() = %q", got)
	}
}

func TestSanitizeUserID(t *testing.T) {
	t.Parallel()

	if got := SanitizeUserID("admin"); got != "admin" {
		t.Errorf("SanitizeUserID() = %q", got)
	}
	long := strings.Repeat("u", MaxUserIDLength+1)
	if got := SanitizeUserID(long); len(got) != MaxUserIDLength+3 {
		t.Errorf("SanitizeUserID() length = %d", len(got))
	}
}
