package recipe

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Search parameter names understood by findByIngredients.
const (
	ParamIngredients  = "ingredients"
	ParamNumber       = "number"
	ParamRanking      = "ranking"
	ParamDiet         = "diet"
	ParamMaxReadyTime = "maxReadyTime"
)

// rankingMinimizeMissing asks the API to rank by fewest missing ingredients.
const rankingMinimizeMissing = 1

// SearchParams are the query parameters sent to the search endpoint, minus the API key.
type SearchParams map[string]string

// Values converts the parameters to url.Values.
func (p SearchParams) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// BuildSearchParams maps a request to search parameters. Laziness only
// affects basic mode when the policy does not ask to ignore it.
func BuildSearchParams(req Request, mode Mode, policy Policy) (SearchParams, error) {
	if len(req.Ingredients) == 0 {
		return nil, wrapError(ErrCodeValidation, "invalid request", ErrNoIngredients)
	}

	params := SearchParams{
		ParamIngredients: strings.Join(req.Ingredients, ","),
		ParamNumber:      strconv.Itoa(policy.candidates()),
		ParamRanking:     strconv.Itoa(rankingMinimizeMissing),
	}

	if diet := strings.TrimSpace(req.Diet); diet != "" {
		params[ParamDiet] = diet
	}

	if mode == ModeDetailed || !policy.BasicIgnoresLaziness {
		if minutes, ok := MaxReadyTime(req.LazinessScore()); ok {
			params[ParamMaxReadyTime] = strconv.Itoa(minutes)
		}
	}

	return params, nil
}

// MaxReadyTime maps a laziness score to a preparation time cap in minutes.
// Scores below 5 have no cap.
func MaxReadyTime(laziness int) (int, bool) {
	switch {
	case laziness >= 8:
		return 15, true
	case laziness >= 5:
		return 30, true
	default:
		return 0, false
	}
}

// Coerced laziness is clamped to the int32 range.
const (
	minCoercedLaziness = math.MinInt32
	maxCoercedLaziness = math.MaxInt32
)

// CoerceLaziness reads a laziness value from an agent or HTTP payload.
// nil and blank strings yield DefaultLaziness. Numbers arrive as ints,
// floats, json.Number or strings; all must be integral.
func CoerceLaziness(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return DefaultLaziness, nil
	case int:
		return clampLaziness(int64(val)), nil
	case int32:
		return int(val), nil
	case int64:
		return clampLaziness(val), nil
	case float32:
		return floatLaziness(float64(val), v)
	case float64:
		return floatLaziness(val, v)
	case json.Number:
		return parseLaziness(string(val), v)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return DefaultLaziness, nil
		}
		return parseLaziness(s, v)
	default:
		return 0, InvalidLazinessError(v)
	}
}

func parseLaziness(s string, original any) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, InvalidLazinessError(original)
	}
	return floatLaziness(f, original)
}

func floatLaziness(f float64, original any) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, InvalidLazinessError(original)
	}
	switch {
	case f > maxCoercedLaziness:
		return maxCoercedLaziness, nil
	case f < minCoercedLaziness:
		return minCoercedLaziness, nil
	}
	return int(f), nil
}

func clampLaziness(n int64) int {
	switch {
	case n > maxCoercedLaziness:
		return maxCoercedLaziness
	case n < minCoercedLaziness:
		return minCoercedLaziness
	}
	return int(n)
}
