package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-tiktok-checker/internal/config"
	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/metrics"
)

var _ adapter.AvailabilityProber = (*Prober)(nil)

// maxBodyBytes caps how much of a response is read for analysis.
const maxBodyBytes = 2 << 20

// terminalError marks probe failures that retrying will not fix.
type terminalError struct{ err error }

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Prober checks username availability against tiktok.com. It asks the user
// detail API first and falls back to fetching the public profile page when
// the API gives no verdict.
type Prober struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	log        *zerolog.Logger
}

func NewProber(cfg config.TikTokConfig, logger *zerolog.Logger) *Prober {
	return &Prober{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        logger,
	}
}

// Check probes a canonical username, retrying transport failures with a
// linear backoff. Verdict-bearing responses never retry.
func (p *Prober) Check(ctx context.Context, username string) (*model.CheckResult, error) {
	metrics.IncChecksInflight()
	defer metrics.DecChecksInflight()

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		res, err := p.performCheck(ctx, username)
		if err == nil {
			return res, nil
		}

		var term *terminalError
		if errors.As(err, &term) {
			return nil, term.err
		}

		lastErr = err
		p.log.Warn().Str("username", username).
			Int("attempt", attempt).Int("max_retries", p.maxRetries).
			Err(err).Msg("probe attempt failed")

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrProbeFailed, p.maxRetries, lastErr)
}

func (p *Prober) performCheck(ctx context.Context, username string) (*model.CheckResult, error) {
	start := time.Now()

	if res := p.checkViaAPI(ctx, username); res != nil {
		res.Latency = time.Since(start)
		metrics.ObserveCheckLatency(string(res.Source), float64(res.Latency.Milliseconds()))
		return res, nil
	}

	p.log.Debug().Str("username", username).Msg("api gave no verdict, falling back to profile page")

	httpStatus, body, err := p.fetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	status, reason := Classify(username, httpStatus, body)
	if status == model.StatusError {
		if httpStatus == http.StatusForbidden {
			return nil, &terminalError{fmt.Errorf("%w: profile fetch returned 403", domain.ErrRateLimited)}
		}
		return nil, &terminalError{fmt.Errorf("%w: profile fetch returned %d", domain.ErrUpstream, httpStatus)}
	}

	res := &model.CheckResult{
		Username:   username,
		Status:     status,
		Detail:     reason,
		Source:     model.SourceHTML,
		HTTPStatus: httpStatus,
		Latency:    time.Since(start),
	}
	metrics.ObserveCheckLatency(string(res.Source), float64(res.Latency.Milliseconds()))
	return res, nil
}

// checkViaAPI queries the user detail endpoint. It returns nil whenever the
// response is anything short of a definitive verdict, letting the caller
// fall back to the profile page.
func (p *Prober) checkViaAPI(ctx context.Context, username string) *model.CheckResult {
	apiURL := fmt.Sprintf("%s/api/user/detail/?uniqueId=%s&secUid=", p.baseURL, url.QueryEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Str("username", username).Err(err).Msg("api probe failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		StatusCode    *int `json:"statusCode"`
		StatusCodeAlt *int `json:"status_code"`
		UserInfo      struct {
			User struct {
				UniqueID string `json:"uniqueId"`
			} `json:"user"`
		} `json:"userInfo"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		p.log.Debug().Str("username", username).Err(err).Msg("api response not parseable")
		return nil
	}

	code := 0
	switch {
	case payload.StatusCode != nil:
		code = *payload.StatusCode
	case payload.StatusCodeAlt != nil:
		code = *payload.StatusCodeAlt
	}

	switch {
	case code == 0 && strings.EqualFold(payload.UserInfo.User.UniqueID, username):
		return p.apiResult(username, model.StatusTaken, model.ReasonAPITaken)
	case code == 10202:
		return p.apiResult(username, model.StatusAvailable, model.ReasonAPIAvailable)
	case code == 10101:
		return p.apiResult(username, model.StatusUnavailable, model.ReasonAPIBanned)
	}
	return nil
}

func (p *Prober) apiResult(username string, status model.UsernameStatus, reason string) *model.CheckResult {
	return &model.CheckResult{
		Username:   username,
		Status:     status,
		Detail:     reason,
		Source:     model.SourceAPI,
		HTTPStatus: http.StatusOK,
	}
}

func (p *Prober) fetchProfile(ctx context.Context, username string) (int, string, error) {
	profileURL := fmt.Sprintf("%s/@%s", p.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return 0, "", err
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(body), nil
}

// setHeaders mimics a desktop browser. Accept-Encoding is left to the
// transport so response bodies arrive transparently decompressed.
func (p *Prober) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
