package ai

import (
	"strings"
	"testing"
)

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: ""},
		{name: "short key fully redacted", key: "sk-12", want: RedactedValue},
		{name: "long key keeps edges", key: "sk-proj-abcdefgh1234", want: "sk-p" + RedactedValue + "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeAPIKey(tt.key); got != tt.want {
				t.Errorf("SanitizeAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizePrompt(t *testing.T) {
	t.Parallel()

	t.Run("strips control characters", func(t *testing.T) {
		t.Parallel()
		got := SanitizePrompt("invoice\x00 total\x1b[31m 1180", false)
		if strings.ContainsAny(got, "\x00\x1b") {
			t.Errorf("control characters survived: %q", got)
		}
	})

	t.Run("keeps newlines and tabs", func(t *testing.T) {
		t.Parallel()
		got := SanitizePrompt("line one\n\tline two", false)
		if got != "line one\n\tline two" {
			t.Errorf("SanitizePrompt() = %q", got)
		}
	})

	t.Run("truncates preview", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", MaxPreviewLength+50)
		got := SanitizePrompt(long, false)
		if len(got) != MaxPreviewLength+3 || !strings.HasSuffix(got, "...") {
			t.Errorf("preview length = %d", len(got))
		}
	})

	t.Run("full log allows more", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", MaxPreviewLength+50)
		got := SanitizePrompt(long, true)
		if len(got) != len(long) {
			t.Errorf("full log truncated to %d", len(got))
		}
	})

	t.Run("invalid utf8 repaired", func(t *testing.T) {
		t.Parallel()
		got := SanitizePrompt("total\xff\xfe amount", false)
		if got != "total amount" {
			t.Errorf("SanitizePrompt() = %q", got)
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString() = %q", got)
	}
	if got := TruncateString("abcdefghij", 4); got != "abcd..." {
		t.Errorf("TruncateString() = %q", got)
	}
}
