package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Secret keys recognized in the .secrets file.
const (
	SecretOpenAIAPIKey      = "OPENAI_API_KEY"
	SecretDeepSeekAPIKey    = "DEEPSEEK_API_KEY"
	SecretSpoonacularAPIKey = "SPOONACULAR_API_KEY"
)

// Secrets holds the key=value pairs of the .secrets file. A nil *Secrets is
// empty and safe to use.
type Secrets struct {
	values map[string]string
}

// NewSecrets creates an empty Secrets
func NewSecrets() *Secrets {
	return &Secrets{values: map[string]string{}}
}

// SecretsPath returns <config dir>/.secrets
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".secrets"), nil
}

// LoadSecrets reads the .secrets file. A missing file yields empty secrets.
func LoadSecrets() (*Secrets, error) {
	path, err := SecretsPath()
	if err != nil {
		return NewSecrets(), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSecrets(), nil
	}
	if err != nil {
		return NewSecrets(), fmt.Errorf("failed to open secrets file: %w", err)
	}
	defer f.Close()

	return parseSecrets(f)
}

// parseSecrets accepts shell-style lines: comments, blank lines, an optional
// "export " prefix and single or double quoted values. Lines without "=" are skipped.
func parseSecrets(r io.Reader) (*Secrets, error) {
	secrets := NewSecrets()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		secrets.values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return secrets, scanner.Err()
}

// SaveSecret sets key=value in the .secrets file, replacing an existing
// assignment of key and keeping every other line as written.
func SaveSecret(key, value string) error {
	path, err := SecretsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read secrets file: %w", err)
	}

	assignment := key + "=" + value
	var existing, lines []string
	if len(data) > 0 {
		existing = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
	replaced := false
	for _, line := range existing {
		name, _, ok := strings.Cut(strings.TrimPrefix(strings.TrimSpace(line), "export "), "=")
		if ok && strings.TrimSpace(name) == key {
			if !replaced {
				lines = append(lines, assignment)
				replaced = true
			}
			continue
		}
		lines = append(lines, line)
	}
	if !replaced {
		lines = append(lines, assignment)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// Get returns the value for key, or ""
func (s *Secrets) Get(key string) string {
	if s == nil {
		return ""
	}
	return s.values[key]
}

// GetOrDefault returns the value for key, or def when it is missing or empty
func (s *Secrets) GetOrDefault(key, def string) string {
	if v := s.Get(key); v != "" {
		return v
	}
	return def
}

// Has reports whether key is present, even with an empty value
func (s *Secrets) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// GetModelAPIKey prefers OPENAI_API_KEY and falls back to DEEPSEEK_API_KEY
func (s *Secrets) GetModelAPIKey() string {
	return s.GetOrDefault(SecretOpenAIAPIKey, s.Get(SecretDeepSeekAPIKey))
}

// GetSpoonacularAPIKey returns SPOONACULAR_API_KEY
func (s *Secrets) GetSpoonacularAPIKey() string {
	return s.Get(SecretSpoonacularAPIKey)
}
