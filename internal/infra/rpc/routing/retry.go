package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
)

// Action determines how the proxy chain handles a failed attempt.
type Action int

const (
	// ActionFailover moves on to the next proxy.
	ActionFailover Action = iota
	// ActionAbort ends the request without trying another proxy.
	ActionAbort
)

func (a Action) String() string {
	if a == ActionAbort {
		return "abort"
	}
	return "failover"
}

// ClassifyAttempt determines the action for a failed proxied attempt.
//
// Timeouts and cancellation abort: the attempt already spent its time budget.
// A 404 relayed from the target is the target's answer, not a proxy fault.
// Everything else (429, 403, 5xx, connection errors) is treated as a problem
// with the proxy in use.
func ClassifyAttempt(err error) Action {
	if err == nil {
		return ActionFailover
	}
	if errors.Is(err, provider.ErrTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ActionAbort
	}

	var se *provider.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return ActionAbort
	}
	return ActionFailover
}
