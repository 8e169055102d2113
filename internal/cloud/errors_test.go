package cloud

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		kind  Kind
		retry bool
	}{
		{KindRateLimited, true},
		{KindServerError, true},
		{KindTimeout, true},
		{KindNetworkError, true},
		{KindUnauthorized, false},
		{KindAPIError, false},
		{KindInvalidResponse, false},
		{KindNoAccountFound, false},
		{KindRecordConflict, false},
		{KindInvalidRecordType, false},
		{KindDNSSECError, false},
		{KindZoneLocked, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &Error{Kind: tt.kind, Message: "x"}
			assert.Equal(t, tt.retry, ShouldRetry(err))
		})
	}
}

func TestShouldRetryWrappedError(t *testing.T) {
	err := fmt.Errorf("creating tunnel: %w", &Error{Kind: KindRateLimited})
	assert.True(t, ShouldRetry(err))

	err = fmt.Errorf("creating tunnel: %w", &Error{Kind: KindRecordConflict})
	assert.False(t, ShouldRetry(err))
}

func TestShouldRetryPlainError(t *testing.T) {
	assert.False(t, ShouldRetry(errors.New("boom")))
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Kind: KindRecordConflict, Code: 81053, Message: "record already exists"}
	assert.Equal(t, "record already exists (code 81053)", err.Error())

	err = &Error{Kind: KindUnauthorized, Message: "authentication failed", Suggestion: "check the token"}
	assert.Equal(t, "authentication failed (check the token)", err.Error())

	err = &Error{Kind: KindTimeout}
	assert.Equal(t, "timeout", err.Error())
}
