package cli

import (
	"fmt"
	"time"

	"github.com/hession/culinai/internal/agent"
	"github.com/hession/culinai/internal/config"
	"github.com/hession/culinai/internal/llm"
	"github.com/hession/culinai/internal/memory"
	"github.com/hession/culinai/internal/recipe"
	"github.com/hession/culinai/internal/spoonacular"
	"github.com/hession/culinai/internal/tools"
)

// NewResolver builds the recipe resolver described by cfg.Spoonacular.
func NewResolver(cfg *config.Config) *recipe.Resolver {
	sc := cfg.Spoonacular
	client := spoonacular.NewClient(
		sc.BaseURL,
		sc.UserAgent,
		time.Duration(sc.TimeoutSeconds)*time.Second,
		spoonacular.WithRateLimit(sc.RequestsPerSecond, sc.Burst),
	)
	return recipe.NewResolver(client,
		recipe.WithAPIKey(sc.APIKey),
		recipe.WithPolicy(sc.Policy()),
	)
}

// NewAgent wires the language model, the recipe tool and, when mem is not
// nil, session memory into an agent.
func NewAgent(cfg *config.Config, mem memory.Store, opts ...agent.Option) (*agent.Agent, error) {
	client := llm.New(
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		cfg.Model.Temperature,
		cfg.Model.MaxTokens,
	)
	registry := tools.NewDefaultRegistry(NewResolver(cfg), cfg.Agent.DefaultMode())

	ag, err := agent.New(cfg, client, mem, registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent: %w", err)
	}
	return ag, nil
}
