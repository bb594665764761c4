package ai

import (
	"errors"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("connection refused"), want: false},
		{name: "429 in message", err: errors.New("POST failed: 429 Too Many Requests"), want: true},
		{name: "rate limit phrase", err: errors.New("rate limit exceeded, slow down"), want: true},
		{name: "api error 429", err: &APIError{StatusCode: 429}, want: true},
		{name: "api error permanent", err: &APIError{StatusCode: 429, IsPermanent: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("timeout"), want: false},
		{name: "insufficient_quota", err: errors.New(`error code insufficient_quota`), want: true},
		{name: "billing message", err: errors.New("billing hard limit reached"), want: true},
		{name: "permanent api error", err: &APIError{IsPermanent: true}, want: true},
		{name: "transient api error", err: &APIError{StatusCode: 429}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	if got := ExtractAPIError(nil); got != nil {
		t.Errorf("ExtractAPIError(nil) = %v, want nil", got)
	}
	if got := ExtractAPIError(errors.New("500 internal error")); got != nil {
		t.Errorf("ExtractAPIError(non-429) = %v, want nil", got)
	}

	rateErr := errors.New(`429 {"message": "Rate limit reached", "type": "rate_limit_error", "code": "rate_limit_exceeded"}`)
	got := ExtractAPIError(rateErr)
	if got == nil {
		t.Fatal("ExtractAPIError(rate limit) = nil")
	}
	if got.StatusCode != 429 || got.IsPermanent {
		t.Errorf("rate limit parsed as status=%d permanent=%v", got.StatusCode, got.IsPermanent)
	}
	if got.Message != "Rate limit reached" || got.Code != "rate_limit_exceeded" {
		t.Errorf("parsed message=%q code=%q", got.Message, got.Code)
	}

	quotaErr := errors.New(`429 {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}`)
	got = ExtractAPIError(quotaErr)
	if got == nil {
		t.Fatal("ExtractAPIError(quota) = nil")
	}
	if !got.IsPermanent {
		t.Error("quota error not marked permanent")
	}
	if got.RetryAfter == nil || *got.RetryAfter != time.Hour {
		t.Errorf("quota RetryAfter = %v, want 1h", got.RetryAfter)
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
	}{
		{name: "generic first attempt", err: errors.New("timeout"), attempt: 0, want: 5 * time.Second},
		{name: "generic backoff", err: errors.New("timeout"), attempt: 2, want: 20 * time.Second},
		{name: "generic capped", err: errors.New("timeout"), attempt: 10, want: 5 * time.Minute},
		{name: "negative attempt", err: errors.New("timeout"), attempt: -1, want: 5 * time.Second},
		{name: "rate limit first attempt", err: &APIError{StatusCode: 429}, attempt: 0, want: 60 * time.Second},
		{name: "rate limit capped", err: &APIError{StatusCode: 429}, attempt: 8, want: 15 * time.Minute},
		{name: "quota first attempt", err: &APIError{IsPermanent: true}, attempt: 0, want: time.Hour},
		{name: "quota capped", err: &APIError{IsPermanent: true}, attempt: 9, want: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetRetryDelay(tt.err, tt.attempt); got != tt.want {
				t.Errorf("GetRetryDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}
