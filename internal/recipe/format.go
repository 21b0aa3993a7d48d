package recipe

import (
	"fmt"
	"strconv"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/spoonacular"
)

// Placeholders used when the API leaves a field out.
const (
	untitled         = "Untitled Recipe"
	unknown          = "unknown"
	noInstructions   = "No instructions provided."
	ingredientJoiner = ", "
)

func formatBasic(c spoonacular.Candidate) string {
	return fmt.Sprintf("Recipe suggestion: %s (used %d of your ingredients, missing %d additional ingredient(s)).",
		stringOr(c.Title, untitled),
		intOr(c.UsedIngredientCount, 0),
		intOr(c.MissedIngredientCount, 0),
	)
}

func formatDetailed(info *spoonacular.RecipeInformation) string {
	ready := unknown
	if info.ReadyInMinutes != nil {
		ready = strconv.Itoa(*info.ReadyInMinutes) + " minutes"
	}
	servings := unknown
	if info.Servings != nil {
		servings = strconv.Itoa(*info.Servings)
	}

	names := make([]string, 0, len(info.ExtendedIngredients))
	for _, ing := range info.ExtendedIngredients {
		if name := strings.TrimSpace(stringOr(ing.Name, "")); name != "" {
			names = append(names, name)
		}
	}
	ingredients := unknown
	if len(names) > 0 {
		ingredients = strings.Join(names, ingredientJoiner)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %s\n", stringOr(info.Title, untitled))
	fmt.Fprintf(&b, "Ready in: %s | Servings: %s\n", ready, servings)
	fmt.Fprintf(&b, "Ingredients: %s\n", ingredients)
	b.WriteString("Instructions:\n")
	b.WriteString(instructionsText(info.Instructions))
	return b.String()
}

// instructionsText renders the instructions field, which Spoonacular often
// returns as HTML, as plain markdown.
func instructionsText(raw *string) string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return noInstructions
	}
	text := strings.TrimSpace(*raw)
	if !strings.Contains(text, "<") {
		return text
	}
	md, err := htmltomd.ConvertString(text)
	if err != nil {
		logger.Warn("recipe: html conversion failed, using raw instructions", "error", err)
		return text
	}
	if md = strings.TrimSpace(md); md != "" {
		return md
	}
	return noInstructions
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
