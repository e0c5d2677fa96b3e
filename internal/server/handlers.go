package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/auth"
	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/poster"
	"github.com/fpang/lora-autoposter/internal/prompt"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "API routes are live"})
}

func (s *Server) handleGeneratePreview(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) || !requireConfig(w, s.cfg.RequireFal) {
		return
	}

	preview, err := s.poster.Preview(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Random preview failed")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

type publishPreviewBody struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

func (b publishPreviewBody) validate() error {
	if !strings.HasPrefix(strings.TrimSpace(b.ImageURL), "http") {
		return &ValidationError{Field: "image_url", Message: "image_url is required and must be a valid URL"}
	}
	return nil
}

func (s *Server) handlePublishPreview(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) || !requireConfig(w, s.cfg.RequireComposio) {
		return
	}
	body, err := decodeBody[publishPreviewBody](r)
	if err == nil {
		err = body.validate()
	}
	if err != nil {
		respondValidation(w, err)
		return
	}
	if !s.allowPublish(w) {
		return
	}

	result, err := s.poster.PublishPreview(r.Context(), strings.TrimSpace(body.ImageURL), strings.TrimSpace(body.Caption))
	if err != nil {
		log.Error().Err(err).Msg("Publish preview failed")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	instagram := poster.NewInstagramReport(result)
	if !result.Success {
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"error":     orDefault(result.Error, "Instagram post failed"),
			"instagram": instagram,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "instagram": instagram})
}

type publishBody struct {
	Preset  string `json:"preset"`
	Caption string `json:"caption"`
	prompt.Overrides
}

// options merges the named preset with the per-field overrides.
func (b publishBody) options() prompt.Options {
	var base prompt.Options
	if name := strings.TrimSpace(b.Preset); name != "" {
		preset, ok := prompt.Preset(name)
		if !ok {
			log.Debug().Str("preset", name).Msg("Unknown preset ignored")
		}
		base = preset
	}
	return base.Apply(b.Overrides)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) || !requireConfig(w, s.cfg.RequireFal, s.cfg.RequireComposio) {
		return
	}
	body, err := decodeBody[publishBody](r)
	if err != nil {
		respondValidation(w, err)
		return
	}
	if !s.allowPublish(w) {
		return
	}

	report, err := s.poster.RunCycle(r.Context(), poster.CycleInput{
		Trigger: "publish",
		Options: body.options(),
		Caption: body.Caption,
	})
	respondCycle(w, report, err)
}

type cronBody struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if !auth.CronAuthorized(r, s.cfg.CronSecret) {
		log.Warn().Msg("Cron request with invalid secret")
		httpError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !requireConfig(w, s.cfg.RequireFal, s.cfg.RequireComposio) {
		return
	}
	body, err := decodeBody[cronBody](r)
	if err != nil {
		respondValidation(w, err)
		return
	}
	if !s.allowPublish(w) {
		return
	}

	report, err := s.poster.RunCycle(r.Context(), poster.CycleInput{
		Trigger:  "cron",
		Caption:  body.Caption,
		ImageURL: body.ImageURL,
	})
	respondCycle(w, report, err)
}

// respondCycle writes a cycle report: 200 when published, 500 otherwise.
func respondCycle(w http.ResponseWriter, report *poster.CycleReport, err error) {
	if report == nil {
		msg := "Unknown error"
		if err != nil {
			msg = err.Error()
		}
		report = &poster.CycleReport{Error: msg}
	}
	if report.Success {
		respondJSON(w, http.StatusOK, report)
		return
	}
	if report.Error == "" {
		report.Error = "Instagram post failed"
	}
	respondJSON(w, http.StatusInternalServerError, report)
}

type generateBody struct {
	Prompt    string `json:"prompt"`
	LoRAURL   string `json:"lora_url"`
	FalAPIKey string `json:"fal_api_key"`
	ImageSize string `json:"image_size"`
	Async     bool   `json:"async"`
}

func (b generateBody) request(serverKey string) (poster.DirectRequest, error) {
	if strings.TrimSpace(b.Prompt) == "" {
		return poster.DirectRequest{}, &ValidationError{Field: "prompt", Message: "prompt is required"}
	}
	if strings.TrimSpace(b.FalAPIKey) == "" && serverKey == "" {
		return poster.DirectRequest{}, &ValidationError{Field: "fal_api_key", Message: "fal_api_key required (in body or env)"}
	}
	size, err := fal.ParseImageSize(b.ImageSize)
	if err != nil {
		return poster.DirectRequest{}, &ValidationError{Field: "image_size", Message: err.Error()}
	}
	return poster.DirectRequest{
		Prompt:    b.Prompt,
		LoRAURL:   b.LoRAURL,
		APIKey:    b.FalAPIKey,
		ImageSize: size,
		Async:     b.Async,
	}, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}
	body, err := decodeBody[generateBody](r)
	if err != nil {
		respondValidation(w, err)
		return
	}
	req, err := body.request(s.cfg.FalAPIKey)
	if err != nil {
		respondValidation(w, err)
		return
	}

	result, err := s.poster.GenerateDirect(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Direct generation failed")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	if result.Async {
		respondJSON(w, http.StatusAccepted, map[string]any{
			"success":    true,
			"request_id": result.RequestID,
			"status":     "IN_PROGRESS",
			"poll_url":   result.PollURL,
			"message":    "Image generation started. Poll the request_id for completion.",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"image_url":  result.ImageURL,
		"request_id": result.RequestID,
		"seed":       result.Seed,
		"lora_used":  result.LoRAUsed,
		"model":      fal.Model,
	})
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
