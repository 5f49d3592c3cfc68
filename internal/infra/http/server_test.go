//go:build !integration

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/model"
	"telegram-channel-bot/internal/usecase"

	"github.com/rs/zerolog"
)

const testSecret = "test-admin-jwt-secret"

type fakeDispatch struct {
	usecase.DispatchUseCase
	ScheduleFunc func(ctx context.Context, categoryID int64, channelID string, at time.Time, content string) (*model.Post, error)
	ListDueFunc  func(ctx context.Context, now time.Time) ([]*model.Post, error)
}

func (f *fakeDispatch) SchedulePost(ctx context.Context, categoryID int64, channelID string, at time.Time, content string) (*model.Post, error) {
	return f.ScheduleFunc(ctx, categoryID, channelID, at, content)
}

func (f *fakeDispatch) ListDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	return f.ListDueFunc(ctx, now)
}

type fakeSubs struct {
	usecase.SubscriptionUseCase
	GrantFunc    func(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error)
	ActivateFunc func(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error)
}

func (f *fakeSubs) ActivatePlanByTelegramID(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error) {
	return f.ActivateFunc(ctx, tgID, plan, now)
}

func (f *fakeSubs) GrantPremiumByTelegramID(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error) {
	return f.GrantFunc(ctx, tgID, days, now)
}

type fakeStats struct{ err error }

func (f *fakeStats) Totals(ctx context.Context) (*usecase.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.Stats{Users: 3, ByPlan: map[model.Plan]int{model.PlanMonthly: 1}}, nil
}

func testConfig(secret string) *config.Config {
	return &config.Config{
		Bot:       config.BotConfig{WebhookPath: "/telegram/webhook"},
		HTTP:      config.HTTPConfig{AdminJWTSecret: secret, CORSOrigins: []string{"https://admin.example.com"}},
		Scheduler: config.SchedulerConfig{NetworkTimeoutSeconds: 5},
	}
}

func newTestServer(cfg *config.Config, d Deps) *Server {
	l := zerolog.Nop()
	if d.Dispatch == nil {
		d.Dispatch = &fakeDispatch{}
	}
	if d.Subs == nil {
		d.Subs = &fakeSubs{}
	}
	if d.Stats == nil {
		d.Stats = &fakeStats{}
	}
	return NewServer(cfg, d, &l)
}

func bearer(t *testing.T, secret string) string {
	t.Helper()
	tok, err := NewAuthManager(secret, time.Minute).Mint("ops")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return "Bearer " + tok
}

func do(h http.Handler, method, path, auth string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newTestServer(testConfig(testSecret), Deps{}).Handler()

	if rr := do(h, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr := do(h, http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusOK {
		t.Errorf("metrics = %d", rr.Code)
	}
}

func TestServer_AdminAuth(t *testing.T) {
	h := newTestServer(testConfig(testSecret), Deps{}).Handler()

	t.Run("should reject a missing token", func(t *testing.T) {
		if rr := do(h, http.MethodGet, "/api/v1/stats", "", nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		if rr := do(h, http.MethodGet, "/api/v1/stats", bearer(t, "other-secret"), nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		am := NewAuthManager(testSecret, time.Minute)
		am.now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, _ := am.Mint("ops")
		if rr := do(h, http.MethodGet, "/api/v1/stats", "Bearer "+tok, nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("should serve stats with a valid token", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/v1/stats", bearer(t, testSecret), nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var st usecase.Stats
		if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if st.Users != 3 || st.ByPlan[model.PlanMonthly] != 1 {
			t.Errorf("unexpected stats %+v", st)
		}
	})

	t.Run("should forbid everything without a configured secret", func(t *testing.T) {
		h := newTestServer(testConfig(""), Deps{}).Handler()
		if rr := do(h, http.MethodGet, "/api/v1/stats", bearer(t, testSecret), nil); rr.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rr.Code)
		}
	})
}

func TestServer_SchedulePost(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var got struct {
		cat     int64
		channel string
		at      time.Time
	}
	d := &fakeDispatch{ScheduleFunc: func(ctx context.Context, categoryID int64, channelID string, when time.Time, content string) (*model.Post, error) {
		if channelID == "" {
			return nil, domain.ErrInvalidArgument
		}
		got.cat, got.channel, got.at = categoryID, channelID, when
		return model.NewPost(categoryID, channelID, when, content)
	}}
	h := newTestServer(testConfig(testSecret), Deps{Dispatch: d}).Handler()
	auth := bearer(t, testSecret)

	t.Run("should create a post", func(t *testing.T) {
		body := []byte(`{"category_id":2,"channel_id":"@eco","scheduled_time":"2026-01-01T10:00:00Z"}`)
		rr := do(h, http.MethodPost, "/api/v1/posts", auth, body)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp postResponse
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.ID == "" || resp.Status != "pending" || resp.ChannelID != "@eco" {
			t.Errorf("unexpected response %+v", resp)
		}
		if got.cat != 2 || !got.at.Equal(at) {
			t.Errorf("unexpected call %+v", got)
		}
	})

	t.Run("should map invalid arguments to 400", func(t *testing.T) {
		body := []byte(`{"category_id":2,"channel_id":"","scheduled_time":"2026-01-01T10:00:00Z"}`)
		if rr := do(h, http.MethodPost, "/api/v1/posts", auth, body); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		if rr := do(h, http.MethodPost, "/api/v1/posts", auth, []byte(`{"category_id":`)); rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})
}

func TestServer_ListDue(t *testing.T) {
	ten := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var asked time.Time
	d := &fakeDispatch{ListDueFunc: func(ctx context.Context, now time.Time) ([]*model.Post, error) {
		asked = now
		p, _ := model.NewPost(1, "@eco", ten, "hi")
		return []*model.Post{p}, nil
	}}
	h := newTestServer(testConfig(testSecret), Deps{Dispatch: d}).Handler()
	auth := bearer(t, testSecret)

	rr := do(h, http.MethodGet, "/api/v1/posts/due?at=2026-01-01T10:00:00Z", auth, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out []postResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if len(out) != 1 || out[0].Content != "hi" || !asked.Equal(ten) {
		t.Errorf("unexpected response %+v (asked %v)", out, asked)
	}

	if rr := do(h, http.MethodGet, "/api/v1/posts/due?at=yesterday", auth, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad timestamp, got %d", rr.Code)
	}
}

func TestServer_GrantPremium(t *testing.T) {
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := &fakeSubs{GrantFunc: func(ctx context.Context, tgID int64, days int, now time.Time) (*model.User, error) {
		switch {
		case tgID == 404:
			return nil, domain.ErrNotFound
		case days <= 0:
			return nil, domain.ErrInvalidArgument
		}
		return &model.User{ID: "u1", TelegramID: tgID, PremiumUntil: &until}, nil
	}}
	h := newTestServer(testConfig(testSecret), Deps{Subs: s}).Handler()
	auth := bearer(t, testSecret)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"grants premium", "/api/v1/users/77/premium", `{"days":30}`, http.StatusOK},
		{"unknown user", "/api/v1/users/404/premium", `{"days":30}`, http.StatusNotFound},
		{"non positive days", "/api/v1/users/77/premium", `{"days":0}`, http.StatusBadRequest},
		{"bad telegram id", "/api/v1/users/abc/premium", `{"days":30}`, http.StatusBadRequest},
		{"unknown field", "/api/v1/users/77/premium", `{"weeks":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, http.MethodPost, tt.path, auth, []byte(tt.body))
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestServer_ActivatePlan(t *testing.T) {
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var activated []model.Plan
	s := &fakeSubs{ActivateFunc: func(ctx context.Context, tgID int64, plan model.Plan, now time.Time) (*model.Subscription, *model.User, error) {
		if tgID == 404 {
			return nil, nil, domain.ErrNotFound
		}
		activated = append(activated, plan)
		return &model.Subscription{Plan: plan, ExpiresAt: &until}, &model.User{TelegramID: tgID, PremiumUntil: &until}, nil
	}}
	h := newTestServer(testConfig(testSecret), Deps{Subs: s}).Handler()
	auth := bearer(t, testSecret)

	rr := do(h, http.MethodPost, "/api/v1/users/77/plan", auth, []byte(`{"plan":"Monthly"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out planResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Plan != "monthly" || out.TelegramID != 77 || out.PremiumUntil == nil || !out.PremiumUntil.Equal(until) {
		t.Errorf("unexpected response %+v", out)
	}

	if rr := do(h, http.MethodPost, "/api/v1/users/77/plan", auth, []byte(`{"plan":"gold"}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown plan, got %d", rr.Code)
	}
	if rr := do(h, http.MethodPost, "/api/v1/users/404/plan", auth, []byte(`{"plan":"weekly"}`)); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if len(activated) != 1 || activated[0] != model.PlanMonthly {
		t.Errorf("unexpected activations %v", activated)
	}
}

func TestServer_StatsFailure(t *testing.T) {
	h := newTestServer(testConfig(testSecret), Deps{Stats: &fakeStats{err: domain.ErrStorage}}).Handler()
	if rr := do(h, http.MethodGet, "/api/v1/stats", bearer(t, testSecret), nil); rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestServer_WebhookAndCORS(t *testing.T) {
	var hits int
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})
	h := newTestServer(testConfig(testSecret), Deps{Webhook: webhook}).Handler()

	if rr := do(h, http.MethodPost, "/telegram/webhook", "", []byte(`{}`)); rr.Code != http.StatusOK || hits != 1 {
		t.Errorf("webhook = %d, hits %d", rr.Code, hits)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.com" {
		t.Errorf("unexpected allow origin %q", got)
	}
}
