package tools

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hession/culinai/internal/recipe"
)

type stubResolver struct {
	calls int
	in    recipe.Input
	mode  recipe.Mode
	res   recipe.Result
}

func (s *stubResolver) ResolveInput(_ context.Context, in recipe.Input, mode recipe.Mode) recipe.Result {
	s.calls++
	s.in = in
	s.mode = mode
	return s.res
}

type echoTool struct{ name string }

func (e echoTool) Name() string               { return e.name }
func (e echoTool) Description() string        { return "echoes its input" }
func (e echoTool) Parameters() []ParameterDef { return nil }
func (e echoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	s, _ := args["text"].(string)
	return s, nil
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	tool := NewRecipeTool(&stubResolver{}, recipe.ModeBasic)
	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(tool); err == nil {
		t.Error("Duplicate registration should fail")
	}

	got, exists := registry.Get(RecipeToolName)
	if !exists {
		t.Fatal("Tool should exist")
	}
	if got.Name() != RecipeToolName {
		t.Errorf("Expected tool name '%s', got '%s'", RecipeToolName, got.Name())
	}

	if _, exists := registry.Get("not_exist"); exists {
		t.Error("Non-existent tool should not exist")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(echoTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}

	var names []string
	for _, tool := range registry.List() {
		names = append(names, tool.Name())
	}
	if strings.Join(names, ",") != "alpha,mid,zeta" {
		t.Errorf("Expected sorted tools, got %v", names)
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(echoTool{name: "echo"}); err != nil {
		t.Fatal(err)
	}

	out, err := registry.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "hi" {
		t.Errorf("Expected 'hi', got '%s'", out)
	}

	_, err = registry.Execute(context.Background(), "missing", nil)
	if err == nil || err.Error() != "tool not found: missing" {
		t.Errorf("Expected tool not found error, got %v", err)
	}
}

func TestGetSchemas(t *testing.T) {
	registry := NewDefaultRegistry(&stubResolver{}, recipe.ModeBasic)
	schemas := registry.GetSchemas()

	if len(schemas) != 1 {
		t.Fatalf("Expected 1 schema, got %d", len(schemas))
	}
	schema := schemas[0]
	if schema.Type != "function" {
		t.Errorf("Expected type 'function', got '%s'", schema.Type)
	}
	if schema.Function.Name != RecipeToolName {
		t.Errorf("Expected name '%s', got '%s'", RecipeToolName, schema.Function.Name)
	}
	if schema.Function.Description == "" {
		t.Error("Description should not be empty")
	}

	params := schema.Function.Parameters
	if params["type"] != "object" {
		t.Errorf("Expected parameters type 'object', got %v", params["type"])
	}
	if !reflect.DeepEqual(params["required"], []string{"ingredients"}) {
		t.Errorf("Expected required [ingredients], got %v", params["required"])
	}

	props := params["properties"].(map[string]any)
	if len(props) != 4 {
		t.Errorf("Expected 4 properties, got %d", len(props))
	}
	if typ := props["laziness"].(map[string]any)["type"]; typ != "integer" {
		t.Errorf("Expected laziness to be an integer, got %v", typ)
	}
	if typ := props["detailed"].(map[string]any)["type"]; typ != "boolean" {
		t.Errorf("Expected detailed to be a boolean, got %v", typ)
	}
}

func TestRecipeTool_Execute(t *testing.T) {
	resolver := &stubResolver{res: recipe.Success("Recipe suggestion: Tagine (used 3 of your ingredients, missing 2 additional ingredient(s)).")}
	tool := NewRecipeTool(resolver, recipe.ModeDetailed)

	out, err := tool.Execute(context.Background(), map[string]any{
		"ingredients": "chickpeas, lamb",
		"diet":        "vegetarian",
		"laziness":    float64(8),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != resolver.res.Summary {
		t.Errorf("Expected summary, got '%s'", out)
	}
	if resolver.calls != 1 {
		t.Errorf("Expected 1 resolver call, got %d", resolver.calls)
	}
	if resolver.mode != recipe.ModeDetailed {
		t.Errorf("Expected detailed mode, got %v", resolver.mode)
	}
	if resolver.in.Ingredients != "chickpeas, lamb" || resolver.in.Diet != "vegetarian" {
		t.Errorf("Unexpected input %+v", resolver.in)
	}
	if resolver.in.Laziness != float64(8) {
		t.Errorf("Expected laziness 8, got %v", resolver.in.Laziness)
	}
	if resolver.in.Detailed != nil {
		t.Error("Detailed should be unset")
	}
}

func TestRecipeTool_ExecuteFailureIsText(t *testing.T) {
	resolver := &stubResolver{res: recipe.Failure(recipe.InvalidLazinessError("abc"))}
	tool := NewRecipeTool(resolver, recipe.ModeBasic)

	out, err := tool.Execute(context.Background(), map[string]any{"ingredients": "rice", "laziness": "abc"})
	if err != nil {
		t.Fatalf("Failures should be returned as text, got error %v", err)
	}
	if !strings.Contains(out, "Recipe lookup failed") || !strings.Contains(out, "invalid laziness abc") {
		t.Errorf("Unexpected output '%s'", out)
	}
}

func TestRecipeTool_WithResolver(t *testing.T) {
	tool := NewRecipeTool(recipe.NewResolver(nil), recipe.ModeBasic)

	out, err := tool.Execute(context.Background(), map[string]any{"ingredients": "rice"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "credential not configured") || !strings.Contains(out, "SPOONACULAR_API_KEY") {
		t.Errorf("Expected missing credential message, got '%s'", out)
	}
}

func TestInputFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want recipe.Input
	}{
		{
			name: "empty",
			args: map[string]any{},
			want: recipe.Input{},
		},
		{
			name: "array ingredients",
			args: map[string]any{"ingredients": []any{"lamb", "olives"}},
			want: recipe.Input{Ingredients: "lamb,olives"},
		},
		{
			name: "string slice ingredients",
			args: map[string]any{"ingredients": []string{"lamb", "olives"}},
			want: recipe.Input{Ingredients: "lamb,olives"},
		},
		{
			name: "non string diet ignored",
			args: map[string]any{"ingredients": "rice", "diet": 3},
			want: recipe.Input{Ingredients: "rice"},
		},
		{
			name: "unparseable detailed ignored",
			args: map[string]any{"ingredients": "rice", "detailed": "maybe"},
			want: recipe.Input{Ingredients: "rice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InputFromArgs(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InputFromArgs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInputFromArgs_Detailed(t *testing.T) {
	in := InputFromArgs(map[string]any{"detailed": true})
	if in.Detailed == nil || !*in.Detailed {
		t.Errorf("Expected detailed=true, got %v", in.Detailed)
	}

	in = InputFromArgs(map[string]any{"detailed": "false"})
	if in.Detailed == nil || *in.Detailed {
		t.Errorf("Expected detailed=false, got %v", in.Detailed)
	}
}

func TestManifest_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "get-recipe-tool")
	m := NewManifest(NewRecipeTool(&stubResolver{}, recipe.ModeBasic), "0.1.0", "SPOONACULAR_API_KEY")

	path, err := SaveManifest(dir, m)
	if err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}
	if path != filepath.Join(dir, ManifestFile) {
		t.Errorf("Unexpected path '%s'", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name: get_recipe", "output_type: string"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Manifest should contain %q:\n%s", want, data)
		}
	}

	loaded, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, m) {
		t.Errorf("Loaded manifest %+v differs from saved %+v", loaded, m)
	}
}

func TestManifest_Validate(t *testing.T) {
	valid := func() Manifest {
		return Manifest{
			Name:        "get_recipe",
			Version:     "1.2.3",
			Description: "recipes",
			OutputType:  "string",
			Inputs:      []ParameterDef{{Name: "ingredients", Type: "string", Required: true}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr string
	}{
		{name: "valid", mutate: func(*Manifest) {}},
		{name: "v prefix accepted", mutate: func(m *Manifest) { m.Version = "v1.0.0" }},
		{name: "missing name", mutate: func(m *Manifest) { m.Name = "" }, wantErr: "missing required field: name"},
		{name: "bad name", mutate: func(m *Manifest) { m.Name = "get recipe" }, wantErr: "invalid name"},
		{name: "bad version", mutate: func(m *Manifest) { m.Version = "latest" }, wantErr: "invalid semver"},
		{name: "missing description", mutate: func(m *Manifest) { m.Description = "" }, wantErr: "description"},
		{name: "missing output type", mutate: func(m *Manifest) { m.OutputType = "" }, wantErr: "output_type"},
		{name: "bad input type", mutate: func(m *Manifest) { m.Inputs[0].Type = "list" }, wantErr: "unsupported type"},
		{
			name:    "duplicate input",
			mutate:  func(m *Manifest) { m.Inputs = append(m.Inputs, m.Inputs[0]) },
			wantErr: "duplicate input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadManifest(dir); err == nil {
		t.Error("Expected error for a missing manifest")
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("name: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil || !strings.Contains(err.Error(), "invalid tool manifest YAML") {
		t.Errorf("Expected YAML error, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("name: get_recipe\nversion: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil || !strings.Contains(err.Error(), "invalid semver") {
		t.Errorf("Expected semver error, got %v", err)
	}
}
