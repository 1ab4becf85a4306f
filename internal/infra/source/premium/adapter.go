// Package premium implements the keyed RapidAPI profile source.
package premium

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/infra/rpc"
	"github.com/vietddude/tikwatch/internal/infra/rpc/budget"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/source"
)

// placeholders are template credentials that must never reach the network.
var placeholders = []string{
	"TU_RAPIDAPI_KEY_AQUI",
	"YOUR_RAPIDAPI_KEY",
	"YOUR_API_KEY",
	"CHANGEME",
	"XXX",
}

// Config configures the adapter. DailyQuota caps calls per day; zero means
// unlimited.
type Config struct {
	APIKey     string
	Host       string
	BaseURL    string
	DailyQuota int
}

// Adapter fetches profiles from the premium API. Calls go direct, not through
// the proxy chain, but still take a limiter grant.
type Adapter struct {
	cfg     Config
	fetcher rpc.Fetcher
	usage   *budget.Tracker
	now     func() time.Time
}

// New creates a premium adapter.
func New(cfg Config, fetcher rpc.Fetcher) *Adapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Adapter{
		cfg:     cfg,
		fetcher: fetcher,
		usage:   budget.NewTracker(cfg.DailyQuota),
		now:     time.Now,
	}
}

// Usage returns today's call usage against the quota.
func (a *Adapter) Usage() budget.UsageStats {
	return a.usage.Usage(a.Name())
}

func (a *Adapter) Name() string {
	return source.NamePremium
}

// IsPlaceholderKey reports whether key is empty or a template value.
func IsPlaceholderKey(key string) bool {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "${") {
		return true
	}
	for _, p := range placeholders {
		if strings.EqualFold(k, p) {
			return true
		}
	}
	return false
}

// FetchProfile requests /user/info for the handle.
func (a *Adapter) FetchProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	if IsPlaceholderKey(a.cfg.APIKey) {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryAPIKey, source.ErrPlaceholderKey)
	}

	if !a.usage.CanMakeCall(a.Name()) {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryRateLimited,
			fmt.Errorf("daily quota of %d calls exhausted", a.cfg.DailyQuota))
	}

	endpoint := fmt.Sprintf("%s/user/info?unique_id=%s", a.cfg.BaseURL, url.QueryEscape(handle))
	resp, err := a.fetcher.Direct(ctx, endpoint, map[string]string{
		"X-RapidAPI-Key":  a.cfg.APIKey,
		"X-RapidAPI-Host": a.cfg.Host,
		"Accept":          "application/json",
	})
	if !errors.Is(err, rpc.ErrNotSent) {
		a.usage.RecordCall(a.Name())
	}
	if err != nil {
		return domain.ProfileRecord{}, source.Fail(a.Name(), categoryFor(err), err)
	}

	payload, err := source.DecodeObject(resp.Body)
	if err != nil {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryParse, err)
	}
	if err := apiError(payload); err != nil {
		return domain.ProfileRecord{}, source.Fail(a.Name(), "", err)
	}

	rec, found := source.ProfileFromFields(handle, source.Flatten(payload), domain.ProvenancePremium, a.now())
	if found == 0 {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryParse,
			errors.New("unexpected shape: no profile fields in premium response"))
	}
	return rec, nil
}

func categoryFor(err error) domain.Category {
	var se *provider.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 401, 403:
			return domain.CategoryAPIKey
		case 429:
			return domain.CategoryRateLimited
		}
	}
	return ""
}

// apiError reads the {"code": -1, "msg": "..."} envelope.
func apiError(payload map[string]any) error {
	code, ok := payload["code"].(float64)
	if !ok || code == 0 {
		return nil
	}
	msg, _ := payload["msg"].(string)
	if msg == "" {
		msg = "unknown error"
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "not exist") || strings.Contains(lower, "unavailable") {
		return fmt.Errorf("user not found: %s", msg)
	}
	return fmt.Errorf("premium API error %d: %s", int(code), msg)
}
