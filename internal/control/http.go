package control

import (
	"errors"
	"net/http"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/indexing/health"
)

func registerControlRoutes(s *health.Server, c *Controller) {
	s.Handle("/control/state", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health.WriteJSON(w, http.StatusOK, c.State())
	}))

	s.Handle("/control/switch", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		out, err := c.SwitchSource(r.Context(), domain.DataSource(r.URL.Query().Get("source")))
		writeOutcome(w, out, err)
	}))

	s.Handle("/control/retry", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		out, err := c.Retry(r.Context())
		writeOutcome(w, out, err)
	}))
}

func writeOutcome(w http.ResponseWriter, out Outcome, err error) {
	var resolved *failure.ResolvedError
	switch {
	case err == nil:
		health.WriteJSON(w, http.StatusOK, out)
	case errors.As(err, &resolved):
		health.WriteJSON(w, http.StatusBadGateway, resolved)
	case errors.Is(err, ErrSwitchUnsupported), errors.Is(err, ErrNothingToRetry):
		health.WriteJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		health.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
