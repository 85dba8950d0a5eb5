package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, 3, cfg.Retriever.TopK)
	assert.Equal(t, 0.25, cfg.Retriever.MinScore)
	assert.Equal(t, 6, cfg.Assistant.HistoryWindow)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_AppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
dataset:
  path: my_policies.csv
llm:
  type: openai
  openai:
    model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "my_policies.csv", cfg.Dataset.Path)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "API_KEY", cfg.LLM.OpenAI.APIKeyEnv)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.OpenAI.BaseURL)
	assert.Equal(t, 60, cfg.LLM.OpenAI.TimeoutSecs)
	assert.Equal(t, 3, cfg.Retriever.TopK)
}

func TestLoad_RemoteSectionsStayNilWhenOmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedder:
  type: openai
vector_store:
  type: qdrant
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	// Remote backends get no synthesized defaults; callers must check for
	// the missing section instead of dereferencing it.
	require.NoError(t, err)
	assert.Nil(t, cfg.Embedder.OpenAI)
	assert.Nil(t, cfg.VectorStore.Qdrant)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Dataset.Path = "custom.csv"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.csv", loaded.Dataset.Path)
	assert.Equal(t, cfg.VectorStore.Type, loaded.VectorStore.Type)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset: [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
