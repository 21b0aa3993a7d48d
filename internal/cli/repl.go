package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/hession/culinai/internal/agent"
	"github.com/hession/culinai/internal/config"
	"github.com/hession/culinai/internal/memory"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"

	// tool results are shown as a one-line preview
	resultPreviewLen = 120
)

// Session is the part of the agent the REPL drives.
type Session interface {
	Chat(ctx context.Context, userMessage string) (string, error)
	NewSession(ctx context.Context) error
	ClearSession(ctx context.Context) error
}

var commands = []prompt.Suggest{
	{Text: "/help", Description: "Show this help message"},
	{Text: "/new", Description: "Start a new session"},
	{Text: "/clear", Description: "Clear the current session"},
	{Text: "/config", Description: "Show current configuration"},
	{Text: "/exit", Description: "Exit program"},
}

// Run starts the interactive chat on the terminal
func Run(ctx context.Context, cfg *config.Config, version string) error {
	printWelcome(os.Stdout, version)

	if !cfg.IsAPIKeyConfigured() {
		if err := promptAPIKey(cfg); err != nil {
			return err
		}
	}
	if !cfg.IsSpoonacularConfigured() {
		fmt.Printf("%s⚠️  Spoonacular API key not configured, recipe lookups will fail until %s is set%s\n\n",
			colorYellow, config.EnvSpoonacularAPIKey, colorReset)
	}

	memStore, err := memory.NewSQLiteStore(cfg.Memory.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize memory store: %w", err)
	}
	defer memStore.Close()

	r := newREPL(ctx, cfg, os.Stdout)
	ag, err := NewAgent(cfg, memStore, agent.WithToolCallHandler(r.toolCallOutput))
	if err != nil {
		return err
	}
	if err := ag.ResumeSession(ctx); err != nil {
		return err
	}
	r.session = ag

	p := prompt.New(
		r.execute,
		complete,
		prompt.OptionTitle("CulinAI"),
		prompt.OptionPrefix("You: "),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionSetExitCheckerOnInput(r.shouldExit),
	)
	p.Run()
	return nil
}

type repl struct {
	ctx     context.Context
	cfg     *config.Config
	session Session
	out     io.Writer
	exit    bool
}

func newREPL(ctx context.Context, cfg *config.Config, out io.Writer) *repl {
	return &repl{ctx: ctx, cfg: cfg, out: out}
}

func (r *repl) shouldExit(_ string, breakline bool) bool {
	return breakline && r.exit
}

// execute handles one submitted line
func (r *repl) execute(line string) {
	input := strings.TrimSpace(line)
	if input == "" {
		return
	}
	if strings.HasPrefix(input, "/") {
		r.exit = !r.handleCommand(input)
		return
	}
	r.processInput(input)
}

func (r *repl) processInput(input string) {
	fmt.Fprintf(r.out, "\n%sCulinAI: %s", colorBlue, colorReset)

	answer, err := r.session.Chat(r.ctx, input)
	if err != nil {
		fmt.Fprintf(r.out, "\n%s❌ Error: %v%s\n\n", colorRed, err, colorReset)
		return
	}
	fmt.Fprintf(r.out, "%s\n\n", answer)
}

// handleCommand handles built-in commands, returns true to continue, false to exit
func (r *repl) handleCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		printHelp(r.out)

	case "/clear":
		if err := r.session.ClearSession(r.ctx); err != nil {
			fmt.Fprintf(r.out, "%s❌ Failed to clear session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Fprintf(r.out, "%s✅ Session cleared%s\n", colorGreen, colorReset)
		}

	case "/new":
		if err := r.session.NewSession(r.ctx); err != nil {
			fmt.Fprintf(r.out, "%s❌ Failed to create new session: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Fprintf(r.out, "%s✅ New session created%s\n", colorGreen, colorReset)
		}

	case "/config":
		if r.cfg != nil {
			fmt.Fprintln(r.out, r.cfg.String())
		}

	case "/exit", "/quit", "/q":
		fmt.Fprintf(r.out, "%sGoodbye! 👋%s\n", colorCyan, colorReset)
		return false

	default:
		fmt.Fprintf(r.out, "%s❓ Unknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Fprintln(r.out, "Type /help for available commands")
	}
	return true
}

// toolCallOutput prints a tool call as it happens
func (r *repl) toolCallOutput(name string, args map[string]any, result string, err error) {
	fmt.Fprintf(r.out, "\n%s🔧 Calling tool: %s%s\n", colorYellow, name, colorReset)
	if len(args) > 0 {
		fmt.Fprintf(r.out, "%s   Args: %v%s\n", colorGray, args, colorReset)
	}
	if err != nil {
		fmt.Fprintf(r.out, "%s   Status: ❌ Failed - %v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Fprintf(r.out, "%s   Result: %s%s\n", colorGray, truncateForDisplay(result, resultPreviewLen), colorReset)
}

func complete(d prompt.Document) []prompt.Suggest {
	return suggestions(d.TextBeforeCursor())
}

// suggestions completes built-in commands; free text gets none
func suggestions(text string) []prompt.Suggest {
	if !strings.HasPrefix(text, "/") || strings.Contains(text, " ") {
		return []prompt.Suggest{}
	}
	return prompt.FilterHasPrefix(commands, text, true)
}

func noSuggestions(prompt.Document) []prompt.Suggest {
	return []prompt.Suggest{}
}

// promptAPIKey asks for the model API key and stores it in .secrets
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%s⚠️  API Key not configured%s\n\n", colorYellow, colorReset)

	apiKey := strings.TrimSpace(prompt.Input("Please enter your OpenAI API Key: ", noSuggestions))
	if apiKey == "" {
		return fmt.Errorf("API Key cannot be empty")
	}

	if err := config.SaveSecret(config.SecretOpenAIAPIKey, apiKey); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cfg.Model.APIKey = apiKey

	fmt.Printf("\n%s✅ API Key saved%s\n\n", colorGreen, colorReset)
	return nil
}

func printWelcome(w io.Writer, version string) {
	fmt.Fprintf(w, "\n%s🍲 CulinAI v%s%s - Recipes from what you have\n", colorCyan, version, colorReset)
	fmt.Fprintf(w, "%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `
%s📚 CulinAI Help%s

%sBuilt-in Commands:%s
`, colorCyan, colorReset, colorYellow, colorReset)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s - %s\n", c.Text, c.Description)
	}
	fmt.Fprintf(w, `
%sExamples:%s
  "I have chickpeas, lamb and couscous. What can I cook?"
  "Something vegetarian with rice, ready in under 15 minutes"
  "Give me the full instructions for that"

`, colorYellow, colorReset)
}

// truncateForDisplay flattens text to one line and cuts it at maxLen runes
func truncateForDisplay(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
