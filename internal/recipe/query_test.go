package recipe

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIngredients(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "simple", input: "chickpeas,lamb", want: []string{"chickpeas", "lamb"}},
		{name: "whitespace", input: " chickpeas ,  lamb , couscous ", want: []string{"chickpeas", "lamb", "couscous"}},
		{name: "empty entries", input: "chickpeas,, ,lamb,", want: []string{"chickpeas", "lamb"}},
		{name: "blank", input: "  ", want: []string{}},
		{name: "empty", input: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredients(tt.input))
		})
	}
}

func TestMaxReadyTime(t *testing.T) {
	for laziness := -2; laziness <= 4; laziness++ {
		_, ok := MaxReadyTime(laziness)
		assert.False(t, ok, "laziness %d should not cap time", laziness)
	}
	for laziness := 5; laziness <= 7; laziness++ {
		minutes, ok := MaxReadyTime(laziness)
		assert.True(t, ok)
		assert.Equal(t, 30, minutes, "laziness %d", laziness)
	}
	for _, laziness := range []int{8, 9, 10, 11, 100} {
		minutes, ok := MaxReadyTime(laziness)
		assert.True(t, ok)
		assert.Equal(t, 15, minutes, "laziness %d", laziness)
	}
}

func TestBuildSearchParams(t *testing.T) {
	req := Request{Ingredients: []string{"chickpeas", "lamb"}, Diet: "vegetarian", Laziness: ptr(9)}

	params, err := BuildSearchParams(req, ModeDetailed, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, SearchParams{
		ParamIngredients:  "chickpeas,lamb",
		ParamNumber:       "1",
		ParamRanking:      "1",
		ParamDiet:         "vegetarian",
		ParamMaxReadyTime: "15",
	}, params)
}

func TestBuildSearchParams_LazinessRanges(t *testing.T) {
	for laziness := 1; laziness <= 10; laziness++ {
		req := Request{Ingredients: []string{"rice"}, Laziness: ptr(laziness)}
		params, err := BuildSearchParams(req, ModeDetailed, DefaultPolicy())
		require.NoError(t, err)

		got, present := params[ParamMaxReadyTime]
		switch {
		case laziness <= 4:
			assert.False(t, present, "laziness %d", laziness)
		case laziness <= 7:
			assert.Equal(t, "30", got, "laziness %d", laziness)
		default:
			assert.Equal(t, "15", got, "laziness %d", laziness)
		}
	}
}

func TestBuildSearchParams_ZeroValueRequestUsesDefaultLaziness(t *testing.T) {
	req := Request{Ingredients: []string{"rice"}}
	assert.Equal(t, DefaultLaziness, req.LazinessScore())

	params, err := BuildSearchParams(req, ModeDetailed, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "30", params[ParamMaxReadyTime])

	params, err = BuildSearchParams(Request{Ingredients: []string{"rice"}, Laziness: ptr(0)}, ModeDetailed, DefaultPolicy())
	require.NoError(t, err)
	assert.NotContains(t, params, ParamMaxReadyTime)
}

func TestBuildSearchParams_BasicMode(t *testing.T) {
	req := Request{Ingredients: []string{"rice"}, Laziness: ptr(8)}

	params, err := BuildSearchParams(req, ModeBasic, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "15", params[ParamMaxReadyTime])

	legacy := DefaultPolicy()
	legacy.BasicIgnoresLaziness = true
	params, err = BuildSearchParams(req, ModeBasic, legacy)
	require.NoError(t, err)
	assert.NotContains(t, params, ParamMaxReadyTime)

	params, err = BuildSearchParams(req, ModeDetailed, legacy)
	require.NoError(t, err)
	assert.Equal(t, "15", params[ParamMaxReadyTime])
}

func TestBuildSearchParams_DietOmittedWhenBlank(t *testing.T) {
	params, err := BuildSearchParams(Request{Ingredients: []string{"rice"}, Diet: "  "}, ModeBasic, DefaultPolicy())
	require.NoError(t, err)
	assert.NotContains(t, params, ParamDiet)
}

func TestBuildSearchParams_Candidates(t *testing.T) {
	params, err := BuildSearchParams(Request{Ingredients: []string{"rice"}}, ModeBasic, Policy{Candidates: 3})
	require.NoError(t, err)
	assert.Equal(t, "3", params[ParamNumber])

	params, err = BuildSearchParams(Request{Ingredients: []string{"rice"}}, ModeBasic, Policy{})
	require.NoError(t, err)
	assert.Equal(t, "1", params[ParamNumber])
}

func TestBuildSearchParams_NoIngredients(t *testing.T) {
	_, err := BuildSearchParams(Request{}, ModeBasic, DefaultPolicy())
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeValidation))
	assert.True(t, errors.Is(err, ErrNoIngredients))
}

func TestSearchParams_Values(t *testing.T) {
	v := SearchParams{ParamIngredients: "a,b", ParamNumber: "1"}.Values()
	assert.Equal(t, "a,b", v.Get(ParamIngredients))
	assert.Equal(t, "1", v.Get(ParamNumber))
	assert.Empty(t, v.Get("apiKey"))
}

func TestCoerceLaziness(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{name: "nil", input: nil, want: DefaultLaziness},
		{name: "int", input: 7, want: 7},
		{name: "int64", input: int64(9), want: 9},
		{name: "float64 from json", input: float64(8), want: 8},
		{name: "json number", input: json.Number("3"), want: 3},
		{name: "numeric string", input: " 6 ", want: 6},
		{name: "blank string", input: "", want: DefaultLaziness},
		{name: "word", input: "abc", wantErr: true},
		{name: "fraction", input: 7.5, wantErr: true},
		{name: "fraction string", input: "7.5", wantErr: true},
		{name: "nan", input: math.NaN(), wantErr: true},
		{name: "bool", input: true, wantErr: true},
		{name: "huge float", input: 1e20, want: math.MaxInt32},
		{name: "huge negative float", input: -1e20, want: math.MinInt32},
		{name: "huge int64", input: int64(math.MaxInt64), want: math.MaxInt32},
		{name: "huge numeric string", input: "99999999999999999999", want: math.MaxInt32},
		{name: "exponent json number", input: json.Number("1e3"), want: 1000},
		{name: "exponent string", input: "1e1", want: 10},
		{name: "fraction json number", input: json.Number("2.5"), wantErr: true},
		{name: "overflowing string", input: "1e400", wantErr: true},
		{name: "infinity string", input: "Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceLaziness(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsCode(err, ErrCodeValidation))
				assert.True(t, errors.Is(err, ErrInvalidLaziness))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceLaziness_LargeValuesKeepTightestCap(t *testing.T) {
	for _, input := range []any{11, 1e20, int64(math.MaxInt64), "99999999999999999999", json.Number("1e3")} {
		laziness, err := CoerceLaziness(input)
		require.NoError(t, err, "input %v", input)

		minutes, capped := MaxReadyTime(laziness)
		assert.True(t, capped, "input %v", input)
		assert.Equal(t, 15, minutes, "input %v", input)
	}
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(" chickpeas, lamb ", " vegan ", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"chickpeas", "lamb"}, req.Ingredients)
	assert.Equal(t, "vegan", req.Diet)
	assert.Equal(t, DefaultLaziness, req.LazinessScore())

	_, err = NewRequest(" , ", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIngredients))

	_, err = NewRequest("rice", "", "lazy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLaziness))
}
