// Package recipe turns a list of ingredients into a recipe suggestion by
// querying the Spoonacular search API and, in detailed mode, the recipe
// information endpoint for the top candidate.
package recipe

import (
	"strings"
)

// DefaultLaziness is used when the caller does not provide a laziness value.
const DefaultLaziness = 5

// Mode selects how much work a resolution does.
type Mode int

const (
	// ModeBasic does a single search and summarizes ingredient tallies.
	ModeBasic Mode = iota
	// ModeDetailed also fetches the top candidate's timing, servings, ingredients and instructions.
	ModeDetailed
)

func (m Mode) String() string {
	switch m {
	case ModeBasic:
		return "basic"
	case ModeDetailed:
		return "detailed"
	default:
		return "unknown"
	}
}

// Request is a structured recipe request.
type Request struct {
	Ingredients []string
	Diet        string
	// Laziness is the 1-10 score; nil means DefaultLaziness.
	Laziness *int
}

// LazinessScore returns the request's laziness, falling back to DefaultLaziness.
func (r Request) LazinessScore() int {
	if r.Laziness == nil {
		return DefaultLaziness
	}
	return *r.Laziness
}

// Input is the loosely typed form of a request as it arrives from an agent
// or an HTTP client. Laziness may be a number or a numeric string.
type Input struct {
	Ingredients string `json:"ingredients"`
	Diet        string `json:"diet,omitempty"`
	Laziness    any    `json:"laziness,omitempty"`
	Detailed    *bool  `json:"detailed,omitempty"`
}

// Policy holds the candidate selection knobs. The zero value behaves like DefaultPolicy.
type Policy struct {
	// Candidates is how many search results are requested. Only the first
	// is used unless FallbackOnDetailError is set.
	Candidates int `yaml:"candidates"`
	// FallbackOnDetailError makes detailed mode try the next candidate when
	// the detail fetch for the current one fails.
	FallbackOnDetailError bool `yaml:"fallback_on_detail_error"`
	// BasicIgnoresLaziness restores the legacy behavior where basic mode
	// never sends a preparation time cap.
	BasicIgnoresLaziness bool `yaml:"basic_ignores_laziness"`
}

// DefaultPolicy considers exactly one candidate and never retries.
func DefaultPolicy() Policy {
	return Policy{Candidates: 1}
}

func (p Policy) candidates() int {
	if p.Candidates < 1 {
		return 1
	}
	return p.Candidates
}

// ParseIngredients splits a comma-separated ingredient list, trimming
// whitespace and dropping empty entries.
func ParseIngredients(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewRequest builds a validated Request from loosely typed values.
func NewRequest(ingredients, diet string, laziness any) (Request, error) {
	items := ParseIngredients(ingredients)
	if len(items) == 0 {
		return Request{}, wrapError(ErrCodeValidation, "invalid request", ErrNoIngredients)
	}

	lz, err := CoerceLaziness(laziness)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Ingredients: items,
		Diet:        strings.TrimSpace(diet),
		Laziness:    &lz,
	}, nil
}

// Result is the outcome of a resolution: a summary on success, a classified error otherwise.
type Result struct {
	Summary string
	Err     *Error
}

// Success wraps a summary.
func Success(summary string) Result {
	return Result{Summary: summary}
}

// Failure wraps an error. Any error that is not an *Error is classified as internal.
func Failure(err error) Result {
	return Result{Err: asError(err)}
}

// OK reports whether the resolution succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// String flattens the result to the text handed back to an agent.
func (r Result) String() string {
	if r.Err == nil {
		return r.Summary
	}
	msg := "Recipe lookup failed: " + r.Err.Error()
	if r.Err.Code == ErrCodeConfiguration {
		msg += ". Set the SPOONACULAR_API_KEY environment variable or spoonacular.api_key in config.yaml."
	}
	return msg
}
