package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hession/culinai/internal/config"
	"github.com/hession/culinai/internal/llm"
	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/memory"
	"github.com/hession/culinai/internal/tools"
)

const (
	// DefaultMaxToolIterations is used when the config does not set a limit
	DefaultMaxToolIterations = 10

	// llmRetries is how many times a failed model call is attempted
	llmRetries = 3
)

// ErrMaxIterations is returned when the model keeps calling tools past the iteration limit.
var ErrMaxIterations = errors.New("tool call limit reached without a final answer")

// ChatClient is the language model used by the agent. *llm.Client implements it.
type ChatClient interface {
	ChatWithRetry(ctx context.Context, messages []llm.Message, tools []llm.Tool, maxRetries int) (*llm.ChatResponse, error)
}

// ToolCallHandler is notified after every tool execution.
type ToolCallHandler func(name string, args map[string]any, result string, err error)

// Agent runs the function-calling loop between the model and the tool registry
type Agent struct {
	promptConfig    *config.PromptConfig
	llm             ChatClient
	memory          memory.Store
	registry        *tools.Registry
	sessionID       string
	maxContextMsgs  int
	maxIterations   int
	toolCallHandler ToolCallHandler
}

// Option agent configuration option
type Option func(*Agent)

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler ToolCallHandler) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// WithPromptConfig overrides the prompt configuration loaded from disk
func WithPromptConfig(p *config.PromptConfig) Option {
	return func(a *Agent) {
		a.promptConfig = p
	}
}

// WithMaxToolIterations overrides agent.max_tool_iterations
func WithMaxToolIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// New creates a new Agent. mem may be nil, in which case nothing is persisted
// and only Ask is meaningful.
func New(cfg *config.Config, client ChatClient, mem memory.Store, reg *tools.Registry, opts ...Option) (*Agent, error) {
	agent := &Agent{
		llm:            client,
		memory:         mem,
		registry:       reg,
		maxContextMsgs: cfg.Memory.MaxContextMessages,
		maxIterations:  cfg.Agent.MaxToolIterations,
	}
	if agent.maxIterations <= 0 {
		agent.maxIterations = DefaultMaxToolIterations
	}

	for _, opt := range opts {
		opt(agent)
	}

	if agent.promptConfig == nil {
		promptCfg, err := config.LoadPromptConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt config: %w", err)
		}
		agent.promptConfig = promptCfg
	}

	return agent, nil
}

// ResumeSession continues the most recent session, creating one if none exists
func (a *Agent) ResumeSession(ctx context.Context) error {
	if a.memory == nil {
		return nil
	}

	session, err := a.memory.GetLatestSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session != nil {
		a.sessionID = session.ID
		return nil
	}
	return a.NewSession(ctx)
}

// NewSession creates a new session
func (a *Agent) NewSession(ctx context.Context) error {
	if a.memory == nil {
		return nil
	}

	sessionID, err := a.memory.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.sessionID = sessionID
	return nil
}

// ClearSession clears the current session and starts a new one
func (a *Agent) ClearSession(ctx context.Context) error {
	if a.memory == nil {
		return nil
	}
	if a.sessionID != "" {
		if err := a.memory.ClearSession(ctx, a.sessionID); err != nil {
			return err
		}
	}
	return a.NewSession(ctx)
}

// SessionID returns the current session ID
func (a *Agent) SessionID() string {
	return a.sessionID
}

// Ask answers a single query without reading or writing session history
func (a *Agent) Ask(ctx context.Context, query string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.promptConfig.GetSystemPrompt()},
		{Role: llm.RoleUser, Content: query},
	}
	return a.run(ctx, messages, nil)
}

// Chat answers userMessage in the context of the current session and records
// the exchange, including tool calls and their results.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	if a.memory == nil || a.sessionID == "" {
		return "", fmt.Errorf("no active session")
	}

	messages, err := a.buildMessages(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("failed to build messages: %w", err)
	}

	if err := a.save(ctx, &memory.Message{Role: llm.RoleUser, Content: userMessage}); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	return a.run(ctx, messages, a.save)
}

// run drives the tool loop. persist, when set, records every new message.
func (a *Agent) run(ctx context.Context, messages []llm.Message, persist func(context.Context, *memory.Message) error) (string, error) {
	if persist == nil {
		persist = func(context.Context, *memory.Message) error { return nil }
	}
	llmTools := a.llmTools()

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.llm.ChatWithRetry(ctx, messages, llmTools, llmRetries)
		if err != nil {
			return "", fmt.Errorf("failed to call LLM: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if err := persist(ctx, &memory.Message{Role: llm.RoleAssistant, Content: resp.Content}); err != nil {
				return "", fmt.Errorf("failed to save assistant message: %w", err)
			}
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		toolCallsJSON, err := json.Marshal(resp.ToolCalls)
		if err != nil {
			return "", fmt.Errorf("failed to encode tool calls: %w", err)
		}
		if err := persist(ctx, &memory.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: string(toolCallsJSON),
		}); err != nil {
			return "", fmt.Errorf("failed to save assistant tool call message: %w", err)
		}

		for _, toolCall := range resp.ToolCalls {
			content := a.executeTool(ctx, toolCall)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: toolCall.ID,
			})
			if err := persist(ctx, &memory.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: toolCall.ID,
			}); err != nil {
				return "", fmt.Errorf("failed to save tool message: %w", err)
			}
		}
	}

	logger.Warn("agent: tool iteration limit reached", "limit", a.maxIterations, "session", a.sessionID)
	return "", fmt.Errorf("%w (%d iterations)", ErrMaxIterations, a.maxIterations)
}

// executeTool runs one tool call and returns the content of the tool message.
// Tool errors are reported to the model, never to the caller.
func (a *Agent) executeTool(ctx context.Context, toolCall llm.ToolCall) string {
	var args map[string]any
	var result string
	var err error

	if err = json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		err = fmt.Errorf("failed to parse tool arguments: %w", err)
	} else {
		result, err = a.registry.Execute(ctx, toolCall.Function.Name, args)
	}

	if a.toolCallHandler != nil {
		a.toolCallHandler(toolCall.Function.Name, args, result, err)
	}

	if err != nil {
		logger.Warn("agent: tool call failed", "tool", toolCall.Function.Name, "error", err)
		return fmt.Sprintf("%s: %v", a.promptConfig.GetErrorPrefix(), err)
	}
	logger.Debug("agent: tool call", "tool", toolCall.Function.Name, "result_len", len(result))
	return result
}

func (a *Agent) llmTools() []llm.Tool {
	schemas := a.registry.GetSchemas()
	out := make([]llm.Tool, len(schemas))
	for i, schema := range schemas {
		out[i] = llm.Tool{
			Type: schema.Type,
			Function: llm.ToolFunction{
				Name:        schema.Function.Name,
				Description: schema.Function.Description,
				Parameters:  schema.Function.Parameters,
			},
		}
	}
	return out
}

// buildMessages loads the session history before the new user message is saved.
func (a *Agent) buildMessages(ctx context.Context, userMessage string) ([]llm.Message, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.promptConfig.GetSystemPrompt()},
	}

	history, err := a.memory.GetMessages(ctx, a.sessionID, a.maxContextMsgs)
	if err != nil {
		return nil, fmt.Errorf("failed to get history messages: %w", err)
	}

	for i, msg := range trimOrphanToolResults(history) {
		llmMsg := llm.Message{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.ToolCalls != "" {
			var toolCalls []llm.ToolCall
			if err := json.Unmarshal([]byte(msg.ToolCalls), &toolCalls); err != nil {
				logger.Warn("agent: dropping unreadable tool calls", "message", i, "error", err)
			} else {
				llmMsg.ToolCalls = toolCalls
			}
		}
		messages = append(messages, llmMsg)
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage}), nil
}

// trimOrphanToolResults drops leading tool results whose assistant message
// fell outside the history window. APIs reject a tool message without its call.
func trimOrphanToolResults(history []*memory.Message) []*memory.Message {
	for len(history) > 0 && history[0].Role == llm.RoleTool {
		history = history[1:]
	}
	return history
}

func (a *Agent) save(ctx context.Context, msg *memory.Message) error {
	return a.memory.SaveMessage(ctx, a.sessionID, msg)
}
