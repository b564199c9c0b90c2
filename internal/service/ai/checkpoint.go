package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	modelConfigFile     = "config.json"
	specialTokensFile   = "special_tokens_map.json"
	tokenizerConfigFile = "tokenizer_config.json"
)

var tokenizerFiles = []string{"tokenizer.json", tokenizerConfigFile, "vocab.json"}

// Checkpoint describes a fine-tuned model directory on disk.
type Checkpoint struct {
	Dir            string   `json:"dir"`
	ModelType      string   `json:"modelType,omitempty"`
	EOSToken       string   `json:"eosToken,omitempty"`
	TokenizerFiles []string `json:"tokenizerFiles"`
}

// InspectCheckpoint verifies that dir holds model weights configuration and a
// tokenizer, and reads the metadata needed to drive generation.
func InspectCheckpoint(dir string) (*Checkpoint, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Reason: ReasonCheckpointMissing, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Reason: ReasonCheckpointMissing, Path: dir, Err: fmt.Errorf("not a directory")}
	}

	var modelCfg struct {
		ModelType string `json:"model_type"`
	}
	if err := readJSON(filepath.Join(dir, modelConfigFile), &modelCfg); err != nil {
		return nil, &LoadError{Reason: ReasonCheckpointIncomplete, Path: dir, Err: err}
	}

	ckpt := &Checkpoint{Dir: dir, ModelType: modelCfg.ModelType}
	for _, name := range tokenizerFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			ckpt.TokenizerFiles = append(ckpt.TokenizerFiles, name)
		}
	}
	if len(ckpt.TokenizerFiles) == 0 {
		return nil, &LoadError{
			Reason: ReasonCheckpointIncomplete,
			Path:   dir,
			Err:    fmt.Errorf("no tokenizer files (%s)", strings.Join(tokenizerFiles, ", ")),
		}
	}

	for _, name := range []string{specialTokensFile, tokenizerConfigFile} {
		token, err := readEOSToken(filepath.Join(dir, name))
		if err != nil {
			return nil, &LoadError{Reason: ReasonCheckpointIncomplete, Path: dir, Err: err}
		}
		if token != "" {
			ckpt.EOSToken = token
			break
		}
	}

	return ckpt, nil
}

// readEOSToken accepts both `"eos_token": "<|endoftext|>"` and the
// `{"content": ...}` object form. A missing file yields an empty token.
func readEOSToken(path string) (string, error) {
	var tokens struct {
		EOS json.RawMessage `json:"eos_token"`
	}
	if err := readJSON(path, &tokens); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if len(tokens.EOS) == 0 || string(tokens.EOS) == "null" {
		return "", nil
	}

	var plain string
	if err := json.Unmarshal(tokens.EOS, &plain); err == nil {
		return plain, nil
	}

	var added struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(tokens.EOS, &added); err != nil {
		return "", fmt.Errorf("parse eos_token in %s: %w", filepath.Base(path), err)
	}
	return added.Content, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
