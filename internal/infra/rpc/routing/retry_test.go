package routing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
)

func TestClassifyAttempt(t *testing.T) {
	tests := []struct {
		err    error
		expect Action
	}{
		{&provider.StatusError{Code: 429}, ActionFailover},
		{&provider.StatusError{Code: 403}, ActionFailover},
		{&provider.StatusError{Code: 502}, ActionFailover},
		{fmt.Errorf("wrapped: %w", &provider.StatusError{Code: 404}), ActionAbort},
		{errors.New("connection reset by peer"), ActionFailover},
		{fmt.Errorf("%w after 10s: corsproxy.io", provider.ErrTimeout), ActionAbort},
		{context.Canceled, ActionAbort},
		{fmt.Errorf("dial: %w", context.DeadlineExceeded), ActionAbort},
	}

	for _, tt := range tests {
		if got := ClassifyAttempt(tt.err); got != tt.expect {
			t.Errorf("ClassifyAttempt(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}
