package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hession/culinai/internal/cli"
	"github.com/hession/culinai/internal/config"
	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/recipe"
	"github.com/hession/culinai/internal/server"
	"github.com/hession/culinai/internal/tools"
)

var (
	version = "0.1.0"
)

// defaultQuery is asked when `culinai ask` gets no arguments
const defaultQuery = "I have chickpeas, lamb, dried apricots, olives, and couscous available. " +
	"Can you suggest an authentic Moroccan recipe with spices commonly used in the region, " +
	"like cumin, cinnamon, and paprika? I'd prefer something traditional like a tagine or " +
	"vegetarian option if possible."

// defaultToolDir is where `culinai save` writes the manifest when no directory is given
const defaultToolDir = "get-recipe-tool"

type rootOptions struct {
	configDir string
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "culinai",
		Short: "CulinAI - recipe suggestions from the ingredients you have",
		Long: `CulinAI suggests recipes from the ingredients you have on hand.

It can:
  • Answer cooking questions with an LLM agent that looks up real recipes
  • Search Spoonacular directly by ingredients, diet and available time
  • Serve the recipe tool over HTTP
  • Write a tool manifest other agents can load`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.configDir != "" {
				config.SetConfigDir(opts.configDir)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return cli.Run(cmd.Context(), cfg, version)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default ./config)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newAskCmd(opts),
		newRecipeCmd(opts),
		newChatCmd(opts),
		newServeCmd(opts),
		newSaveCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [query]",
		Short: "Ask the agent one question and print its answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.IsAPIKeyConfigured() {
				return fmt.Errorf("model API key not configured: set %s or model.api_key", config.EnvOpenAIAPIKey)
			}

			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				query = defaultQuery
			}

			ag, err := cli.NewAgent(cfg, nil)
			if err != nil {
				return err
			}
			answer, err := ag.Ask(cmd.Context(), query)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func newRecipeCmd(opts *rootOptions) *cobra.Command {
	var (
		ingredients string
		diet        string
		laziness    string
		detailed    bool
	)

	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Look up a recipe directly, without the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			in := recipe.Input{Ingredients: ingredients, Diet: diet}
			if laziness != "" {
				in.Laziness = laziness
			}
			if cmd.Flags().Changed("detailed") {
				in.Detailed = &detailed
			}

			res := cli.NewResolver(cfg).ResolveInput(cmd.Context(), in, cfg.Agent.DefaultMode())
			if !res.OK() {
				return errors.New(res.String())
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&ingredients, "ingredients", "i", "", "comma-separated ingredients")
	cmd.Flags().StringVarP(&diet, "diet", "d", "", "diet restriction, e.g. vegetarian")
	cmd.Flags().StringVarP(&laziness, "laziness", "l", "", "laziness 1-10; 5 and up caps preparation time")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "fetch full recipe details")
	_ = cmd.MarkFlagRequired("ingredients")
	return cmd
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with session history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return cli.Run(cmd.Context(), cfg, version)
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe tool over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.IsSpoonacularConfigured() {
				logger.Warn("serve: spoonacular API key not configured, recipe requests will fail",
					"env", config.EnvSpoonacularAPIKey)
			}
			return server.Run(cmd.Context(), server.NewConfig(cfg, version), cli.NewResolver(cfg))
		},
	}
}

func newSaveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save [dir]",
		Short: "Write the recipe tool manifest to dir/tool.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			dir := defaultToolDir
			if len(args) == 1 {
				dir = args[0]
			}

			tool := tools.NewRecipeTool(cli.NewResolver(cfg), cfg.Agent.DefaultMode())
			path, err := tools.SaveManifest(dir, tools.NewManifest(tool, version, config.EnvSpoonacularAPIKey))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tool manifest written to %s\n", path)
			return nil
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file path: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CulinAI v%s\n", version)
		},
	}
}

// loadConfig loads the configuration and starts file logging
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		LogDir:     config.LogDir(),
		Level:      level,
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.Console,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetLevel(level)

	logConfigInfo(cfg)
	return cfg, nil
}

func logConfigInfo(cfg *config.Config) {
	logger.Info("config loaded",
		"model", cfg.Model.Model,
		"baseURL", cfg.Model.BaseURL,
		"modelKeyConfigured", cfg.IsAPIKeyConfigured(),
		"spoonacularKeyConfigured", cfg.IsSpoonacularConfigured(),
		"candidates", cfg.Spoonacular.Candidates,
		"defaultMode", cfg.Agent.DefaultMode().String(),
		"dbPath", cfg.Memory.DBPath,
	)
}
