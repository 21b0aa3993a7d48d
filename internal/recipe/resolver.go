package recipe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/spoonacular"
)

// SearchAPI is the recipe API the resolver talks to. *spoonacular.Client implements it.
type SearchAPI interface {
	SearchByIngredients(ctx context.Context, apiKey string, params url.Values) ([]spoonacular.Candidate, error)
	RecipeInformation(ctx context.Context, apiKey string, id int) (*spoonacular.RecipeInformation, error)
}

// Resolver resolves recipe requests. It keeps no state between calls and is
// safe for concurrent use.
type Resolver struct {
	api    SearchAPI
	apiKey string
	policy Policy
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAPIKey sets the credential sent with every API call.
func WithAPIKey(apiKey string) Option {
	return func(r *Resolver) {
		r.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

// NewResolver creates a resolver backed by api.
func NewResolver(api SearchAPI, opts ...Option) *Resolver {
	r := &Resolver{
		api:    api,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveInput parses loosely typed input and resolves it. defaultMode is
// used when the input does not say whether a detailed answer is wanted.
func (r *Resolver) ResolveInput(ctx context.Context, in Input, defaultMode Mode) Result {
	mode := defaultMode
	if in.Detailed != nil {
		mode = ModeBasic
		if *in.Detailed {
			mode = ModeDetailed
		}
	}

	// the credential check comes first so a misconfigured tool says so
	// regardless of what the agent sent
	if r.apiKey == "" {
		res := Failure(newError(ErrCodeConfiguration, "credential not configured"))
		observe(mode, res, time.Now())
		return res
	}

	req, err := NewRequest(in.Ingredients, in.Diet, in.Laziness)
	if err != nil {
		res := Failure(err)
		observe(mode, res, time.Now())
		return res
	}
	return r.Resolve(ctx, req, mode)
}

// Resolve runs a single resolution. It never panics and never returns a
// partial result: any failure yields a Result carrying an *Error.
func (r *Resolver) Resolve(ctx context.Context, req Request, mode Mode) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("recipe: resolver panic", "panic", p)
			res = Failure(newError(ErrCodeInternal, fmt.Sprintf("unexpected failure: %v", p)))
		}
		observe(mode, res, start)
	}()

	if r.apiKey == "" {
		return Failure(newError(ErrCodeConfiguration, "credential not configured"))
	}

	params, err := BuildSearchParams(req, mode, r.policy)
	if err != nil {
		return Failure(err)
	}

	logger.Debug("recipe: searching",
		"mode", mode.String(),
		"ingredients", params[ParamIngredients],
		"diet", params[ParamDiet],
		"maxReadyTime", params[ParamMaxReadyTime],
	)

	candidates, err := r.api.SearchByIngredients(ctx, r.apiKey, params.Values())
	if err != nil {
		logger.Warn("recipe: search failed", "error", err)
		return Failure(wrapError(ErrCodeNetwork, "search error", err))
	}
	if len(candidates) == 0 {
		return Failure(newError(ErrCodeNotFound, "no recipes found"))
	}

	if mode == ModeBasic {
		return Success(formatBasic(candidates[0]))
	}
	return r.resolveDetail(ctx, candidates)
}

// resolveDetail fetches details for the first candidate, or walks the
// remaining candidates in order when the policy allows a fallback.
func (r *Resolver) resolveDetail(ctx context.Context, candidates []spoonacular.Candidate) Result {
	limit := 1
	if r.policy.FallbackOnDetailError {
		limit = len(candidates)
	}

	var lastErr *Error
	for i := 0; i < limit && i < len(candidates); i++ {
		c := candidates[i]
		if c.ID == nil {
			lastErr = newError(ErrCodeNotFound, "missing recipe identifier")
			continue
		}

		info, err := r.api.RecipeInformation(ctx, r.apiKey, *c.ID)
		if err != nil {
			logger.Warn("recipe: detail fetch failed", "id", *c.ID, "candidate", i, "error", err)
			lastErr = wrapError(ErrCodeNetwork, "detail fetch error", err)
			continue
		}
		return Success(formatDetailed(info))
	}
	return Failure(lastErr)
}
