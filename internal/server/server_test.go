package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fpang/lora-autoposter/internal/auth"
	"github.com/fpang/lora-autoposter/internal/config"
	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/instagram"
	"github.com/fpang/lora-autoposter/internal/poster"
	"github.com/fpang/lora-autoposter/internal/prompt"
)

type fakePoster struct {
	preview      *poster.PreviewResult
	publish      *instagram.Result
	report       *poster.CycleReport
	direct       *poster.DirectResult
	err          error
	calls        int
	cycleIn      poster.CycleInput
	directIn     poster.DirectRequest
	publishedURL string
}

func (f *fakePoster) Preview(context.Context) (*poster.PreviewResult, error) {
	f.calls++
	return f.preview, f.err
}

func (f *fakePoster) PublishPreview(_ context.Context, imageURL, _ string) (*instagram.Result, error) {
	f.calls++
	f.publishedURL = imageURL
	return f.publish, f.err
}

func (f *fakePoster) RunCycle(_ context.Context, in poster.CycleInput) (*poster.CycleReport, error) {
	f.calls++
	f.cycleIn = in
	return f.report, f.err
}

func (f *fakePoster) GenerateDirect(_ context.Context, req poster.DirectRequest) (*poster.DirectResult, error) {
	f.calls++
	f.directIn = req
	return f.direct, f.err
}

type fakeSessions struct{ ok bool }

func (f fakeSessions) Verify(context.Context, *http.Request) (*auth.User, error) {
	if !f.ok {
		return nil, &auth.ValidationError{Type: auth.ErrTypeNoToken, Message: "no session token"}
	}
	return &auth.User{ID: "user-1"}, nil
}

func fullConfig() *config.Config {
	return &config.Config{
		FalAPIKey:        "fal",
		ComposioAPIKey:   "ck",
		ComposioEntityID: "entity",
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: response is not JSON: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, out
}

func TestGateOrder(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		session   bool
		method    string
		path      string
		header    map[string]string
		wantCode  int
		wantError string
	}{
		{name: "method first", cfg: &config.Config{}, method: http.MethodGet, path: "/publish", wantCode: 405, wantError: "Method not allowed"},
		{name: "auth before config", cfg: &config.Config{}, method: http.MethodPost, path: "/publish", wantCode: 401, wantError: "Unauthorized"},
		{name: "missing fal", cfg: &config.Config{ComposioAPIKey: "ck", ComposioEntityID: "e"}, session: true, method: http.MethodPost, path: "/publish", wantCode: 500, wantError: "FAL_API_KEY not set"},
		{name: "missing composio", cfg: &config.Config{FalAPIKey: "f"}, session: true, method: http.MethodPost, path: "/api/publish", wantCode: 500, wantError: "COMPOSIO_API_KEY and COMPOSIO_ENTITY_ID required"},
		{name: "preview needs only fal", cfg: &config.Config{}, session: true, method: http.MethodPost, path: "/generate-preview", wantCode: 500, wantError: "FAL_API_KEY not set"},
		{name: "publish-preview needs composio", cfg: &config.Config{FalAPIKey: "f"}, session: true, method: http.MethodPost, path: "/publish-preview", wantCode: 500, wantError: "COMPOSIO_API_KEY and COMPOSIO_ENTITY_ID required"},
		{name: "cron method", cfg: fullConfig(), method: http.MethodPut, path: "/cron/publish", wantCode: 405, wantError: "Method not allowed"},
		{name: "cron secret", cfg: &config.Config{CronSecret: "s"}, method: http.MethodPost, path: "/cron/publish", header: map[string]string{"Authorization": "Bearer nope"}, wantCode: 401, wantError: "Unauthorized"},
		{name: "cron config", cfg: &config.Config{CronSecret: "s"}, method: http.MethodGet, path: "/api/cron/publish", header: map[string]string{"Authorization": "bearer s"}, wantCode: 500, wantError: "FAL_API_KEY not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoster{}
			h := New(tt.cfg, p, fakeSessions{ok: tt.session}).Handler()
			rec, out := do(t, h, tt.method, tt.path, "", tt.header)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if out["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", out["error"], tt.wantError)
			}
			if p.calls != 0 {
				t.Error("gated request must not reach the poster")
			}
		})
	}
}

func TestMethodNotAllowedSetsAllow(t *testing.T) {
	h := New(fullConfig(), &fakePoster{}, fakeSessions{}).Handler()
	rec, _ := do(t, h, http.MethodDelete, "/cron/publish", "", nil)
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q", got)
	}
}

func TestPreflightAndPing(t *testing.T) {
	h := New(fullConfig(), &fakePoster{}, fakeSessions{}).Handler()

	rec, _ := do(t, h, http.MethodOptions, "/publish", "", map[string]string{"Origin": "https://app.test"})
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight: %d %v", rec.Code, rec.Header())
	}

	rec, out := do(t, h, http.MethodGet, "/api/ping", "", nil)
	if rec.Code != http.StatusOK || out["ok"] != true || out["message"] != "API routes are live" {
		t.Errorf("ping: %d %v", rec.Code, out)
	}
}

func TestCORSAllowList(t *testing.T) {
	cfg := fullConfig()
	cfg.CORSOrigins = []string{"https://app.test"}
	h := New(cfg, &fakePoster{}, fakeSessions{}).Handler()

	rec, _ := do(t, h, http.MethodGet, "/ping", "", map[string]string{"Origin": "https://app.test"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.test" {
		t.Errorf("allowed origin not echoed: %v", rec.Header())
	}
	rec, _ = do(t, h, http.MethodGet, "/ping", "", map[string]string{"Origin": "https://evil.test"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unlisted origin must not be allowed: %v", rec.Header())
	}
}

func TestGeneratePreview(t *testing.T) {
	p := &fakePoster{preview: &poster.PreviewResult{ImageURL: "https://v3b.fal.media/files/a.jpg", Caption: "c", Theme: "t", ShotType: "s"}}
	h := New(fullConfig(), p, fakeSessions{ok: true}).Handler()

	rec, out := do(t, h, http.MethodPost, "/generate-preview", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for key, want := range map[string]string{"image_url": "https://v3b.fal.media/files/a.jpg", "caption": "c", "theme": "t", "shot_type": "s"} {
		if out[key] != want {
			t.Errorf("%s = %v, want %q", key, out[key], want)
		}
	}

	p.err = &fal.GenerationError{Kind: fal.Timeout, Message: "Image generation timed out"}
	rec, out = do(t, h, http.MethodPost, "/generate-preview", "", nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(out["error"].(string), "timed out") {
		t.Errorf("failure: %d %v", rec.Code, out)
	}
}

func TestPublishPreview(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		publish  *instagram.Result
		err      error
		wantCode int
		check    func(t *testing.T, out map[string]any)
	}{
		{
			name:     "bad url",
			body:     `{"image_url":"ftp://x"}`,
			wantCode: 400,
			check: func(t *testing.T, out map[string]any) {
				if out["error"] != "image_url is required and must be a valid URL" {
					t.Errorf("error = %v", out["error"])
				}
			},
		},
		{name: "malformed body", body: `[1,2`, wantCode: 400},
		{
			name:     "published",
			body:     `{"image_url":" https://v3b.fal.media/files/a.jpg ","caption":"hi"}`,
			publish:  &instagram.Result{Success: true, MediaID: "m1", Permalink: "https://instagram.com/p/1"},
			wantCode: 200,
			check: func(t *testing.T, out map[string]any) {
				ig := out["instagram"].(map[string]any)
				if out["success"] != true || ig["status"] != "published" || ig["media_id"] != "m1" || ig["error"] != nil {
					t.Errorf("unexpected body: %v", out)
				}
			},
		},
		{
			name:     "rejected",
			body:     `{"image_url":"https://v3b.fal.media/files/a.jpg"}`,
			publish:  &instagram.Result{Success: false, Error: "caption too long"},
			wantCode: 500,
			check: func(t *testing.T, out map[string]any) {
				ig := out["instagram"].(map[string]any)
				if out["success"] != false || out["error"] != "caption too long" || ig["status"] != "failed" || ig["permalink"] != nil {
					t.Errorf("unexpected body: %v", out)
				}
			},
		},
		{
			name:     "transport error",
			body:     `{"image_url":"https://v3b.fal.media/files/a.jpg"}`,
			err:      errors.New("connection reset"),
			wantCode: 500,
			check: func(t *testing.T, out map[string]any) {
				if out["success"] != false || out["error"] != "connection reset" {
					t.Errorf("unexpected body: %v", out)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoster{publish: tt.publish, err: tt.err}
			h := New(fullConfig(), p, fakeSessions{ok: true}).Handler()
			rec, out := do(t, h, http.MethodPost, "/publish-preview", tt.body, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestPublishMergesPresetAndOverrides(t *testing.T) {
	p := &fakePoster{report: &poster.CycleReport{Success: true, RunID: "run"}}
	h := New(fullConfig(), p, fakeSessions{ok: true}).Handler()

	body := `{"preset":"Gym","vibe":"  focused ","postIdea":"","caption":"mine"}`
	rec, out := do(t, h, http.MethodPost, "/publish", body, nil)
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("status = %d body=%v", rec.Code, out)
	}

	gym, _ := prompt.Preset("Gym")
	want := gym
	want.Vibe = "focused"
	want.PostIdea = ""
	if p.cycleIn.Options != want {
		t.Errorf("options = %+v, want %+v", p.cycleIn.Options, want)
	}
	if p.cycleIn.Caption != "mine" || p.cycleIn.Trigger != "publish" || p.cycleIn.ImageURL != "" {
		t.Errorf("unexpected cycle input: %+v", p.cycleIn)
	}
}

func TestCycleEnvelopes(t *testing.T) {
	mediaID := "container-1"
	errText := "rate limited"
	tests := []struct {
		name     string
		report   *poster.CycleReport
		err      error
		wantCode int
		check    func(t *testing.T, out map[string]any)
	}{
		{
			name: "publish failed",
			report: &poster.CycleReport{
				RunID:      "r",
				Error:      errText,
				Generation: &poster.GenerationReport{Status: poster.GenerationCompleted, ImageURL: "https://v3b.fal.media/files/a.jpg"},
				Instagram:  &poster.InstagramReport{Status: "failed", MediaID: &mediaID, Error: &errText},
			},
			wantCode: 500,
			check: func(t *testing.T, out map[string]any) {
				if out["success"] != false || out["error"] != "rate limited" || out["generation"] == nil {
					t.Errorf("unexpected body: %v", out)
				}
			},
		},
		{
			name:     "exception",
			report:   &poster.CycleReport{RunID: "r", Error: "Fal AI submission failed: 401"},
			err:      errors.New("Fal AI submission failed: 401"),
			wantCode: 500,
			check: func(t *testing.T, out map[string]any) {
				if v, ok := out["generation"]; !ok || v != nil {
					t.Errorf("generation must be null, got %v", out)
				}
				if v, ok := out["instagram"]; !ok || v != nil {
					t.Errorf("instagram must be null, got %v", out)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoster{report: tt.report, err: tt.err}
			h := New(fullConfig(), p, fakeSessions{}).Handler()
			rec, out := do(t, h, http.MethodPost, "/cron/publish", `{"image_url":"https://x.test/a.jpg"}`, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			tt.check(t, out)
			if p.cycleIn.Trigger != "cron" || p.cycleIn.ImageURL != "https://x.test/a.jpg" {
				t.Errorf("unexpected cycle input: %+v", p.cycleIn)
			}
		})
	}
}

func TestCronGETWithoutBody(t *testing.T) {
	p := &fakePoster{report: &poster.CycleReport{Success: true}}
	h := New(fullConfig(), p, fakeSessions{}).Handler()
	rec, _ := do(t, h, http.MethodGet, "/cron/publish", "", nil)
	if rec.Code != http.StatusOK || p.calls != 1 {
		t.Errorf("status = %d calls = %d", rec.Code, p.calls)
	}
}

func TestPublishRateLimit(t *testing.T) {
	cfg := fullConfig()
	cfg.PublishRatePerHour = 1
	p := &fakePoster{report: &poster.CycleReport{Success: true}}
	h := New(cfg, p, fakeSessions{}).Handler()

	if rec, _ := do(t, h, http.MethodPost, "/cron/publish", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first call status = %d", rec.Code)
	}
	rec, out := do(t, h, http.MethodPost, "/cron/publish", "", nil)
	if rec.Code != http.StatusTooManyRequests || out["error"] == nil {
		t.Errorf("second call status = %d body=%v", rec.Code, out)
	}
	if p.calls != 1 {
		t.Errorf("limited call must not reach the poster, calls = %d", p.calls)
	}
}

func TestGenerate(t *testing.T) {
	seed := int64(3)
	tests := []struct {
		name     string
		cfg      *config.Config
		body     string
		direct   *poster.DirectResult
		wantCode int
		want     map[string]any
	}{
		{name: "prompt required", cfg: fullConfig(), body: `{}`, wantCode: 400, want: map[string]any{"error": "prompt is required"}},
		{name: "no key", cfg: &config.Config{}, body: `{"prompt":"p"}`, wantCode: 400, want: map[string]any{"error": "fal_api_key required (in body or env)"}},
		{name: "bad size", cfg: fullConfig(), body: `{"prompt":"p","image_size":"huge"}`, wantCode: 400},
		{
			name:     "async",
			cfg:      &config.Config{},
			body:     `{"prompt":"p","fal_api_key":"k","async":true}`,
			direct:   &poster.DirectResult{Async: true, RequestID: "req", PollURL: "https://queue/requests/req/status"},
			wantCode: 202,
			want:     map[string]any{"success": true, "request_id": "req", "status": "IN_PROGRESS", "poll_url": "https://queue/requests/req/status"},
		},
		{
			name:     "sync",
			cfg:      fullConfig(),
			body:     `{"prompt":"p","image_size":"portrait"}`,
			direct:   &poster.DirectResult{RequestID: "req", ImageURL: "https://v3b.fal.media/files/a.jpg", Seed: &seed, LoRAUsed: "lora"},
			wantCode: 200,
			want:     map[string]any{"success": true, "image_url": "https://v3b.fal.media/files/a.jpg", "seed": float64(3), "lora_used": "lora", "model": "fal-ai/flux-lora"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoster{direct: tt.direct}
			h := New(tt.cfg, p, fakeSessions{ok: true}).Handler()
			rec, out := do(t, h, http.MethodPost, "/api/generate", tt.body, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			for k, v := range tt.want {
				if out[k] != v {
					t.Errorf("%s = %v, want %v", k, out[k], v)
				}
			}
		})
	}
}

func TestGenerateRequiresSession(t *testing.T) {
	h := New(fullConfig(), &fakePoster{}, fakeSessions{ok: false}).Handler()
	if rec, _ := do(t, h, http.MethodPost, "/generate", `{"prompt":"p"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}
