package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func TestNew(t *testing.T) {
	client := New("test-api-key", "https://api.test.com/", "test-model", 0.7, 1000)

	if client.apiKey != "test-api-key" {
		t.Errorf("Expected apiKey 'test-api-key', got '%s'", client.apiKey)
	}
	if client.baseURL != "https://api.test.com" {
		t.Errorf("Expected baseURL without trailing slash, got '%s'", client.baseURL)
	}
	if client.Model() != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", client.Model())
	}
	if client.temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %f", client.temperature)
	}
	if client.maxTokens != 1000 {
		t.Errorf("Expected maxTokens 1000, got %d", client.maxTokens)
	}
}

// completionHandler answers chat completion requests with body and records
// the decoded request in *got.
func completionHandler(t *testing.T, got *map[string]any, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header, got %s", r.Header.Get("Authorization"))
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("Failed to decode request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestClient_Chat(t *testing.T) {
	var reqBody map[string]any
	server := httptest.NewServer(completionHandler(t, &reqBody, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Try a tagine."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	resp, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "Hello"}}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Content != "Try a tagine." {
		t.Errorf("Expected content 'Try a tagine.', got '%s'", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason stop, got %s", resp.FinishReason)
	}
	if resp.TotalTokens != 15 {
		t.Errorf("Expected 15 total tokens, got %d", resp.TotalTokens)
	}
	if len(resp.ToolCalls) != 0 {
		t.Errorf("Expected no tool calls, got %d", len(resp.ToolCalls))
	}

	if reqBody["model"] != "test-model" {
		t.Errorf("Expected model 'test-model', got '%v'", reqBody["model"])
	}
	if _, ok := reqBody["tools"]; ok {
		t.Error("tools should be omitted when none are registered")
	}
	msgs, _ := reqBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("Expected 1 message, got %d", len(msgs))
	}
}

func TestClient_ChatWithTools(t *testing.T) {
	var reqBody map[string]any
	server := httptest.NewServer(completionHandler(t, &reqBody, `{
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "get_recipe", "arguments": "{\"ingredients\":\"lamb,apricots\"}"}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`))
	defer server.Close()

	tools := []Tool{{
		Type: "function",
		Function: ToolFunction{
			Name:        "get_recipe",
			Description: "Find a recipe",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"ingredients": map[string]any{"type": "string"}},
				"required":   []string{"ingredients"},
			},
		},
	}}

	history := []Message{
		{Role: RoleSystem, Content: "You are a cook."},
		{Role: RoleUser, Content: "I have lamb"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_0", Type: "function", Function: FunctionCall{Name: "get_recipe", Arguments: "{}"}}}},
		{Role: RoleTool, ToolCallID: "call_0", Content: "Recipe lookup failed: no recipes found"},
	}

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	resp, err := client.Chat(context.Background(), history, tools)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Type != "function" || tc.Function.Name != "get_recipe" {
		t.Errorf("Unexpected tool call %+v", tc)
	}
	if !strings.Contains(tc.Function.Arguments, "lamb,apricots") {
		t.Errorf("Unexpected arguments %s", tc.Function.Arguments)
	}

	sentTools, _ := reqBody["tools"].([]any)
	if len(sentTools) != 1 {
		t.Fatalf("Expected 1 tool in request, got %d", len(sentTools))
	}
	fn := sentTools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "get_recipe" {
		t.Errorf("Expected get_recipe tool, got %v", fn["name"])
	}

	msgs := reqBody["messages"].([]any)
	toolMsg := msgs[3].(map[string]any)
	if toolMsg["role"] != "tool" || toolMsg["tool_call_id"] != "call_0" {
		t.Errorf("Tool result message not forwarded correctly: %v", toolMsg)
	}
	assistant := msgs[2].(map[string]any)
	if calls, _ := assistant["tool_calls"].([]any); len(calls) != 1 {
		t.Errorf("Assistant tool calls not forwarded: %v", assistant)
	}
}

func TestClient_ChatEmptyChoices(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, nil, `{"choices": []}`))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	if _, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestClient_ChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("Unexpected error message: %v", err)
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != http.StatusUnauthorized {
		t.Errorf("Expected a wrapped *openai.APIError with status 401, got %v", err)
	}
	if retryable(context.Background(), err) {
		t.Error("401 should not be retryable")
	}
}

func TestClient_ChatWithRetry_RecoversFromServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
			return
		}
		w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	client.retryDelay = time.Millisecond

	resp, err := client.ChatWithRetry(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, 3)
	if err != nil {
		t.Fatalf("ChatWithRetry failed: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Expected 'ok', got %q", resp.Content)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 calls, got %d", got)
	}
}

func TestClient_ChatWithRetry_DoesNotRetryClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad tool schema", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	client.retryDelay = time.Millisecond

	_, err := client.ChatWithRetry(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, 3)
	if err == nil {
		t.Fatal("Expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single call, got %d", got)
	}
}

func TestClient_ChatWithRetry_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	client.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.ChatWithRetry(ctx, []Message{{Role: RoleUser, Content: "hi"}}, nil, 5); err == nil {
		t.Fatal("Expected error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("ChatWithRetry should stop waiting when the context is done")
	}
}
