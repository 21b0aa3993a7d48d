package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/recipe"
)

// RecipeToolName is the function name exposed to the model.
const RecipeToolName = "get_recipe"

// RecipeResolver resolves loosely typed recipe input. *recipe.Resolver implements it.
type RecipeResolver interface {
	ResolveInput(ctx context.Context, in recipe.Input, defaultMode recipe.Mode) recipe.Result
}

// RecipeTool suggests a recipe for a list of ingredients.
type RecipeTool struct {
	resolver    RecipeResolver
	defaultMode recipe.Mode
}

// NewRecipeTool creates the get_recipe tool. defaultMode applies when the
// caller does not pass "detailed".
func NewRecipeTool(resolver RecipeResolver, defaultMode recipe.Mode) *RecipeTool {
	return &RecipeTool{resolver: resolver, defaultMode: defaultMode}
}

func (t *RecipeTool) Name() string {
	return RecipeToolName
}

func (t *RecipeTool) Description() string {
	return "Gets a recipe suggestion based on the provided ingredients and dietary preference. " +
		"Set detailed to get preparation time, servings, the ingredient list and instructions."
}

func (t *RecipeTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "ingredients",
			Type:        "string",
			Description: "A comma-separated string of available ingredients.",
			Required:    true,
		},
		{
			Name:        "diet",
			Type:        "string",
			Description: "Dietary restriction such as 'vegetarian', 'vegan', or 'gluten free'.",
		},
		{
			Name:        "laziness",
			Type:        "integer",
			Description: "How little effort the user wants to spend, 1 to 10. 5 or more limits preparation to 30 minutes, 8 or more to 15 minutes. Defaults to 5.",
		},
		{
			Name:        "detailed",
			Type:        "boolean",
			Description: "Fetch full details for the best match.",
		},
	}
}

// Execute always returns the flattened result text. Lookup failures are
// part of that text rather than a Go error, so the model can explain them.
func (t *RecipeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	in := InputFromArgs(args)
	res := t.resolver.ResolveInput(ctx, in, t.defaultMode)
	if !res.OK() {
		logger.Info("tool: get_recipe failed", "code", res.Err.Code, "error", res.Err)
	}
	return res.String(), nil
}

// InputFromArgs converts decoded function-call arguments to a recipe.Input.
// Ingredient lists given as arrays are joined with commas.
func InputFromArgs(args map[string]any) recipe.Input {
	in := recipe.Input{
		Ingredients: ingredientsArg(args["ingredients"]),
		Laziness:    args["laziness"],
	}
	if diet, ok := args["diet"].(string); ok {
		in.Diet = diet
	}

	switch v := args["detailed"].(type) {
	case bool:
		in.Detailed = &v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			in.Detailed = &b
		}
	}
	return in
}

func ingredientsArg(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		return ""
	}
}
