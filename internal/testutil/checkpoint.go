package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteCheckpoint creates a minimal fine-tuned model directory and returns its path.
func WriteCheckpoint(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "yoda-chatbot-cornell")
	files := map[string]string{
		"config.json":             `{"model_type": "gpt2", "n_positions": 1024}`,
		"tokenizer_config.json":   `{"model_max_length": 1024}`,
		"vocab.json":              `{}`,
		"special_tokens_map.json": `{"eos_token": {"content": "<|endoftext|>", "lstrip": false}}`,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir checkpoint: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
