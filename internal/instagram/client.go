// Package instagram publishes single-image posts to an Instagram business
// account through the Composio tool gateway.
//
// Publishing is a linear workflow:
//  1. Resolve the destination account id (INSTAGRAM_GET_USER_INFO unless a usable id is configured)
//  2. Create a media container, retrying across sibling CDN hosts when the URL is rejected
//  3. Publish the container (INSTAGRAM_CREATE_POST)
//  4. Look up the permalink if the publish response omitted it
//
// Remote rejections come back as a Result with Success=false. Only transport
// failures are returned as errors.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fpang/lora-autoposter/internal/composio"
)

const (
	// MaxCaptionLength is Instagram's caption limit in characters.
	MaxCaptionLength = 2200

	// userIDTTL is how long a resolved account id is kept as a fallback.
	userIDTTL = 24 * time.Hour
	// resolveTimeout bounds one shared account id lookup.
	resolveTimeout = 30 * time.Second

	defaultAccountKey = "default"
)

// ToolExecutor runs one gateway tool. *composio.Client satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, tool string, args map[string]any, connectedAccountID string) (*composio.Response, error)
}

// ImageChecker probes a candidate URL before it is sent to the platform.
type ImageChecker interface {
	Check(ctx context.Context, imageURL string) error
}

// Mirror re-hosts an image and returns a URL the platform can fetch.
type Mirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

// Request is one publish call. Build it with NewRequest.
type Request struct {
	ImageURL           string
	Caption            string
	UserID             string
	ConnectedAccountID string
}

// NewRequest trims its inputs and truncates caption to MaxCaptionLength.
func NewRequest(imageURL, caption, userID, connectedAccountID string) Request {
	return Request{
		ImageURL:           strings.TrimSpace(imageURL),
		Caption:            truncateRunes(caption, MaxCaptionLength),
		UserID:             strings.TrimSpace(userID),
		ConnectedAccountID: strings.TrimSpace(connectedAccountID),
	}
}

// Container is a created, not yet published, media container.
type Container struct {
	ID        string
	SourceURL string
}

// Result is the outcome of a publish.
type Result struct {
	Success   bool   `json:"success"`
	MediaID   string `json:"media_id,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Error     string `json:"error,omitempty"`

	// Attempts is the number of container-creation calls made.
	Attempts int `json:"-"`
}

// Publisher runs the publish workflow.
type Publisher struct {
	tools   ToolExecutor
	hosts   []string
	checker ImageChecker
	mirror  Mirror

	userIDs *cache.Cache
	group   singleflight.Group
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithCandidateHosts sets the CDN host family used to build fallback URLs.
func WithCandidateHosts(hosts []string) Option {
	return func(p *Publisher) { p.hosts = hosts }
}

// WithImageChecker skips candidates that fail the check.
func WithImageChecker(c ImageChecker) Option {
	return func(p *Publisher) { p.checker = c }
}

// WithMirror adds a re-hosted URL as the last candidate once every
// original candidate was rejected.
func WithMirror(m Mirror) Option {
	return func(p *Publisher) { p.mirror = m }
}

// NewPublisher creates a Publisher over the given gateway.
func NewPublisher(tools ToolExecutor, opts ...Option) *Publisher {
	p := &Publisher{
		tools:   tools,
		userIDs: cache.New(userIDTTL, time.Hour),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type idData struct {
	ID string `json:"id"`
}

type postData struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

// Publish runs the workflow for req.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	req.Caption = truncateRunes(req.Caption, MaxCaptionLength)

	candidates, err := CandidateURLs(req.ImageURL, p.hosts)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	userID, err := p.resolveUserID(ctx, req)
	if err != nil {
		return nil, err
	}

	attempt, err := p.createContainer(ctx, req, userID, candidates)
	if err != nil {
		return nil, err
	}
	attempts := attempt.calls

	if attempt.failure != nil && attempt.urlProblem && p.mirror != nil {
		mirrored, mirrorErr := p.mirror.Mirror(ctx, req.ImageURL)
		if mirrorErr != nil {
			log.Warn().Err(mirrorErr).Msg("Image mirror failed, keeping original failure")
		} else {
			log.Info().Msg("All candidate URLs rejected, retrying with mirrored image")
			attempt, err = p.createContainer(ctx, req, userID, []string{mirrored})
			if err != nil {
				return nil, err
			}
			attempts += attempt.calls
		}
	}
	if attempt.failure != nil {
		attempt.failure.Attempts = attempts
		return attempt.failure, nil
	}

	result, err := p.finalize(ctx, req, userID, attempt.container)
	if err != nil {
		return nil, err
	}
	result.Attempts = attempts
	return result, nil
}

// resolveUserID returns a usable destination id. Concurrent resolutions for
// the same connected account share one gateway call; a previously resolved
// id is used only when resolution fails.
func (p *Publisher) resolveUserID(ctx context.Context, req Request) (string, error) {
	if IsUsableUserID(req.UserID) {
		return req.UserID, nil
	}
	if req.UserID != "" {
		log.Debug().Str("userId", req.UserID).Msg("Configured Instagram user id is not usable, resolving")
	}

	key := req.ConnectedAccountID
	if key == "" {
		key = defaultAccountKey
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := p.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		id, err := p.fetchUserID(shared, req.ConnectedAccountID)
		if err != nil {
			return nil, err
		}
		p.userIDs.Set(key, id, cache.DefaultExpiration)
		return id, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", fmt.Errorf("resolve Instagram user id: %w", ctx.Err())
	}
	err := res.Err
	if err == nil {
		return res.Val.(string), nil
	}

	if cached, ok := p.userIDs.Get(key); ok {
		log.Warn().Err(err).Msg("Instagram user id resolution failed, using cached id")
		return cached.(string), nil
	}
	return "", fmt.Errorf("resolve Instagram user id: %w", err)
}

func (p *Publisher) fetchUserID(ctx context.Context, connectedAccountID string) (string, error) {
	resp, err := p.tools.Execute(ctx, composio.ToolGetUserInfo, map[string]any{}, connectedAccountID)
	if err != nil {
		return "", err
	}
	if !resp.Successful || !resp.HasData() {
		return "", errors.New(orDefault(resp.ErrorMessage(), "Failed to get Instagram user info"))
	}
	var data idData
	if err := resp.DecodeData(&data); err != nil || data.ID == "" {
		return "", errors.New("Instagram user info did not return an id")
	}
	log.Info().Str("userId", data.ID).Msg("Resolved Instagram user id")
	return data.ID, nil
}

// containerAttempt is the outcome of trying a list of candidate URLs.
// Exactly one of container or failure is set.
type containerAttempt struct {
	container  *Container
	failure    *Result
	urlProblem bool
	calls      int
}

func (p *Publisher) createContainer(ctx context.Context, req Request, userID string, candidates []string) (*containerAttempt, error) {
	out := &containerAttempt{}
	lastFailure := "Create media container failed"

	for i, candidate := range candidates {
		hasNext := i < len(candidates)-1

		if p.checker != nil {
			if err := p.checker.Check(ctx, candidate); err != nil {
				log.Warn().Err(err).Int("candidate", i).Msg("Image URL failed preflight, skipping")
				lastFailure = fmt.Sprintf("Image URL failed preflight: %v", err)
				out.urlProblem = true
				continue
			}
		}

		out.calls++
		resp, err := p.tools.Execute(ctx, composio.ToolCreateMediaContainer, map[string]any{
			"image_url":    candidate,
			"caption":      req.Caption,
			"ig_user_id":   userID,
			"content_type": "photo",
		}, req.ConnectedAccountID)
		if err != nil {
			if hasNext {
				log.Warn().Err(err).Int("candidate", i).Msg("Create media container request failed, trying next URL")
				continue
			}
			return nil, fmt.Errorf("create media container: %w", err)
		}

		if !resp.Successful || !resp.HasData() {
			msg := orDefault(resp.ErrorMessage(), "Create media container failed")
			if IsURLRejection(msg) {
				out.urlProblem = true
				if hasNext {
					log.Warn().Str("error", msg).Int("candidate", i).Msg("Image URL rejected, trying next URL")
					lastFailure = msg
					continue
				}
			} else {
				out.urlProblem = false
			}
			out.failure = &Result{Success: false, Error: msg}
			return out, nil
		}

		var data idData
		if err := resp.DecodeData(&data); err != nil || data.ID == "" {
			out.urlProblem = false
			out.failure = &Result{Success: false, Error: "No container id in CREATE_MEDIA_CONTAINER response"}
			return out, nil
		}

		log.Info().Str("containerId", data.ID).Int("candidate", i).Msg("Media container created")
		out.container = &Container{ID: data.ID, SourceURL: candidate}
		return out, nil
	}

	out.failure = &Result{Success: false, Error: lastFailure}
	return out, nil
}

func (p *Publisher) finalize(ctx context.Context, req Request, userID string, container *Container) (*Result, error) {
	resp, err := p.tools.Execute(ctx, composio.ToolCreatePost, map[string]any{
		"ig_user_id":  userID,
		"creation_id": container.ID,
	}, req.ConnectedAccountID)
	if err != nil {
		return nil, fmt.Errorf("publish container %s: %w", container.ID, err)
	}
	if !resp.Successful {
		return &Result{
			Success: false,
			MediaID: container.ID,
			Error:   orDefault(resp.ErrorMessage(), "Create post failed"),
		}, nil
	}

	var data postData
	if resp.HasData() {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			log.Debug().Err(err).Msg("Create post data not decodable, using container id")
		}
	}
	mediaID := orDefault(data.ID, container.ID)
	permalink := data.Permalink
	if permalink == "" {
		permalink = p.lookupPermalink(ctx, mediaID, req.ConnectedAccountID)
	}

	log.Info().Str("mediaId", mediaID).Str("permalink", permalink).Msg("Instagram post published")
	return &Result{Success: true, MediaID: mediaID, Permalink: permalink}, nil
}

// lookupPermalink is best effort. Every failure yields "".
func (p *Publisher) lookupPermalink(ctx context.Context, mediaID, connectedAccountID string) string {
	resp, err := p.tools.Execute(ctx, composio.ToolGetMedia, map[string]any{
		"ig_media_id": mediaID,
		"fields":      "id,permalink,media_url",
	}, connectedAccountID)
	if err != nil {
		log.Debug().Err(err).Msg("Permalink lookup failed")
		return ""
	}
	if !resp.Successful || !resp.HasData() {
		return ""
	}
	var data postData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return ""
	}
	return data.Permalink
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
