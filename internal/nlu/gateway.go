// Package nlu turns untrusted user text into a validated command via the
// model collaborator, guarded by the rate/cost/circuit protections. The
// pipeline is a short linear sequence of fallible steps: primary call
// (one retry on transient failure), recovery, deterministic list
// enrichment, model-assisted refinement and search-stem normalization.
// The last three are best-effort and never fail the request.
package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"remindbot/internal/ai"
	"remindbot/internal/command"
	"remindbot/internal/guard"
)

// Failure taxonomy surfaced to the caller. Schema violations come back
// as command.ErrInvalid; rate limiting as ai.ErrRateLimited.
var (
	ErrCircuitOpen    = errors.New("model circuit breaker is open")
	ErrBudgetExceeded = errors.New("monthly model budget exceeded")
)

const retryBackoff = 500 * time.Millisecond

// ModelClient is the external language-model collaborator.
type ModelClient interface {
	Complete(ctx context.Context, instructions, userText string) (*ai.Result, error)
}

type Gateway struct {
	client           ModelClient
	costGuard        *guard.CostGuard
	breaker          *guard.CircuitBreaker
	estimatedCallUSD float64
	logger           zerolog.Logger
	sleep            func(time.Duration)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSleepFunc overrides the backoff sleep between retries, for tests.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(g *Gateway) { g.sleep = fn }
}

func New(client ModelClient, costGuard *guard.CostGuard, breaker *guard.CircuitBreaker, estimatedCallUSD float64, logger zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		client:           client,
		costGuard:        costGuard,
		breaker:          breaker,
		estimatedCallUSD: estimatedCallUSD,
		logger:           logger,
		sleep:            time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildCommand translates one user message into a validated command.
// now must carry the interpretation timezone.
func (g *Gateway) BuildCommand(ctx context.Context, userText string, now time.Time) (command.Command, error) {
	if g.breaker.IsOpen(now) {
		return nil, ErrCircuitOpen
	}
	if !g.costGuard.CanSpend(g.estimatedCallUSD, now) {
		return nil, ErrBudgetExceeded
	}

	raw, err := g.invoke(ctx, systemPrompt, userTurn(userText, now), now)
	if err != nil {
		return nil, err
	}

	cmd, parseErr := parseOutput(raw)
	if parseErr != nil {
		cmd, err = g.recover(ctx, raw, now)
		if err != nil {
			// Surface the original validation error, not the
			// recovery one.
			return nil, parseErr
		}
	}

	list, ok := cmd.(*command.List)
	if !ok {
		return cmd, nil
	}

	enrichListCommand(list, userText, now)

	if list.Mode == command.ListModeAll && !list.HasFilters() {
		if refined := g.refine(ctx, userText, now); refined != nil {
			list = refined
		}
	}
	if list.SearchText != "" {
		if stem := g.normalizeSearchTerm(ctx, list.SearchText, now); stem != "" {
			list.SearchText = stem
		}
	}
	return list, nil
}

// invoke runs one model call with usage accounting. Transient failures
// get a single retry after a short backoff; a rate-limit rejection
// counts as a breaker failure and is not retried.
func (g *Gateway) invoke(ctx context.Context, instructions, userText string, now time.Time) (string, error) {
	var result *ai.Result
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		result, err = g.client.Complete(ctx, instructions, userText)
		if err == nil {
			break
		}
		if errors.Is(err, ai.ErrRateLimited) {
			g.breaker.RegisterFailure(now)
			return "", err
		}
		if errors.Is(err, ai.ErrTransient) && attempt == 0 {
			g.sleep(retryBackoff * time.Duration(attempt+1))
			continue
		}
		return "", err
	}

	g.breaker.RegisterSuccess()
	snapshot := g.costGuard.RegisterTokens(result.InputTokens, result.OutputTokens, now)
	g.logger.Info().
		Str("month", snapshot.MonthKey).
		Int("total_tokens", snapshot.TotalTokens).
		Float64("total_usd", snapshot.TotalUSD).
		Msg("model usage tracked")
	for _, threshold := range g.costGuard.NewAlertThresholds(now) {
		g.logger.Warn().Int("threshold_pct", threshold).Msg("model budget threshold reached")
	}
	return strings.TrimSpace(result.Text), nil
}

// recover asks the model to repair its own invalid output once.
func (g *Gateway) recover(ctx context.Context, invalidOutput string, now time.Time) (command.Command, error) {
	raw, err := g.invoke(ctx, recoveryPrompt, "Previous output:\n"+invalidOutput, now)
	if err != nil {
		return nil, err
	}
	return parseOutput(raw)
}

// refine re-derives a more specific list command from the same user
// text. Best-effort: any failure keeps the current command.
func (g *Gateway) refine(ctx context.Context, userText string, now time.Time) *command.List {
	raw, err := g.invoke(ctx, refinePrompt, userTurn(userText, now), now)
	if err != nil {
		g.logger.Debug().Err(err).Msg("list refinement skipped")
		return nil
	}
	cmd, err := parseOutput(raw)
	if err != nil {
		g.logger.Debug().Err(err).Msg("list refinement produced invalid command")
		return nil
	}
	refined, ok := cmd.(*command.List)
	if !ok {
		return nil
	}
	return refined
}

// normalizeSearchTerm asks for a short lowercase stem of the search
// term. Best-effort: any failure keeps the original term.
func (g *Gateway) normalizeSearchTerm(ctx context.Context, term string, now time.Time) string {
	raw, err := g.invoke(ctx, stemPrompt, "Search term: "+term, now)
	if err != nil {
		g.logger.Debug().Err(err).Msg("search term normalization skipped")
		return ""
	}
	var payload struct {
		Stem string `json:"stem"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Stem)
}

func parseOutput(raw string) (command.Command, error) {
	return command.Parse([]byte(stripCodeFence(raw)))
}

// stripCodeFence removes optional markdown code fencing around a JSON
// payload.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "{") {
		// Drop a language tag such as ```json.
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func userTurn(userText string, now time.Time) string {
	return fmt.Sprintf("User request: %s\nCurrent local time: %s\nReturn only the JSON command.",
		userText, now.Format("2006-01-02 15:04 (Monday) -07:00"))
}
