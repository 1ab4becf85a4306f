package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/tikwatch/internal/core/config"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/health"
	"github.com/vietddude/tikwatch/internal/indexing/synth"
)

func TestApp_Lifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "alternative"
	cfg.User = "@alice"
	cfg.Server.Port = 0
	cfg.Live.PollInterval = 50 * time.Millisecond

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.poller == nil {
		t.Fatal("expected a poller when a user is configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, ok := app.poller.Latest(); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, ok := app.poller.Latest()
	if !ok {
		t.Fatal("expected the poller to produce a snapshot")
	}
	if rec.Provenance != domain.ProvenanceSynthetic || rec.Handle != "alice" {
		t.Errorf("unexpected snapshot: %+v", rec)
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestApp_NoUserNoPoller(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.poller != nil {
		t.Error("expected no poller without a user")
	}
	if got := app.resolver.Sources(); len(got) != 3 || got[0] != "premium" {
		t.Errorf("unexpected source order %v", got)
	}
	if app.Controller().Mode() != domain.ModeStrict {
		t.Errorf("expected strict default, got %s", app.Controller().Mode())
	}
}

func TestApp_InvalidMode(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "sometimes"
	if _, err := NewApp(cfg); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestControlRoutes(t *testing.T) {
	res := &fakeResolver{profile: realProfile()}
	ctrl := NewController(domain.ModeHybrid, res, synth.New(), 15)
	srv := health.NewServer(health.NewMonitor(health.Config{Controller: ctrl}), 0)
	registerControlRoutes(srv, ctrl)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/control/retry", "", nil)
	if err != nil {
		t.Fatalf("POST retry: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 with nothing to retry, got %d", resp.StatusCode)
	}

	if _, err := ctrl.ResolveProfile(context.Background(), "alice"); err != nil {
		t.Fatalf("ResolveProfile: %v", err)
	}

	resp, err = http.Post(ts.URL+"/control/switch?source=synthetic", "", nil)
	if err != nil {
		t.Fatalf("POST switch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Profile == nil || out.Profile.Provenance != domain.ProvenanceSynthetic {
		t.Errorf("unexpected outcome: %+v", out)
	}

	resp2, err := http.Post(ts.URL+"/control/switch?source=sideways", "", nil)
	if err != nil {
		t.Fatalf("POST switch: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown source, got %d", resp2.StatusCode)
	}
}
