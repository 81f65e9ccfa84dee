package spotify

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "rate limit", err: errors.New("API rate limit exceeded"), expected: true},
		{name: "status 429", err: errors.New("unexpected status 429"), expected: true},
		{name: "status 503", err: errors.New("got 503 from upstream"), expected: true},
		{name: "bad request", err: errors.New("invalid search query"), expected: false},
		{name: "auth failure", err: errors.New("401 unauthorized"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	c := &Client{maxRetries: 3}

	calls := 0
	err := c.retry(func() error {
		calls++
		return errors.New("invalid search query")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors are not retried")
}

func TestRetry_RetriesTransientError(t *testing.T) {
	c := &Client{maxRetries: 3}

	calls := 0
	err := c.retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("got 503 from upstream")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
