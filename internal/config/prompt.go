package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptConfig prompt configuration structure
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts prompts for a specific language
type LanguagePrompts struct {
	System      string `yaml:"system"`
	ErrorPrefix string `yaml:"error_prefix"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "en",
		Prompts: map[string]LanguagePrompts{
			"en": {
				System: `You are CulinAI, a friendly cooking assistant. When the user mentions ingredients they have, call the get_recipe tool with:
- ingredients: a comma-separated list of the ingredients
- diet: a diet such as "vegetarian" or "vegan", only if the user asked for one
- laziness: an integer from 1 to 10, where 10 means the user wants the quickest possible recipe
- detailed: true when the user wants timing, servings and instructions

Base your answer on the tool result. If the lookup failed, explain the problem plainly and do not invent a recipe.`,
				ErrorPrefix: "Error",
			},
			"fr": {
				System: `Vous êtes CulinAI, un assistant culinaire. Lorsque l'utilisateur mentionne des ingrédients, appelez l'outil get_recipe avec:
- ingredients: la liste des ingrédients séparés par des virgules
- diet: un régime comme "vegetarian", seulement si l'utilisateur le demande
- laziness: un entier de 1 à 10, 10 signifiant la recette la plus rapide possible
- detailed: true si l'utilisateur veut le temps, les portions et les instructions

Répondez à partir du résultat de l'outil. Si la recherche échoue, expliquez le problème sans inventer de recette.`,
				ErrorPrefix: "Erreur",
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	// First check if there's a config/prompt.yaml in current working directory
	cwd, err := os.Getwd()
	if err == nil {
		localPath := filepath.Join(cwd, "config", "prompt.yaml")
		if _, err := os.Stat(localPath); err == nil {
			return localPath, nil
		}
	}

	// Fall back to user config directory
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	// Parse config
	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	if prompts, ok := p.Prompts[p.Language]; ok {
		return prompts
	}
	if prompts, ok := p.Prompts["en"]; ok {
		return prompts
	}
	return LanguagePrompts{}
}

// GetSystemPrompt returns the system prompt for the configured language
func (p *PromptConfig) GetSystemPrompt() string {
	return p.GetPrompts().System
}

// GetErrorPrefix returns the error prefix for the configured language
func (p *PromptConfig) GetErrorPrefix() string {
	return p.GetPrompts().ErrorPrefix
}
