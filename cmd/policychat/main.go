package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"policychat/internal/assistant"
	"policychat/internal/config"
	"policychat/internal/dataset"
	"policychat/internal/embedding"
	openaiemb "policychat/internal/embedding/openai"
	"policychat/internal/embedding/tfidf"
	"policychat/internal/guardrail"
	"policychat/internal/index"
	"policychat/internal/llm"
	"policychat/internal/llm/ollama"
	openaillm "policychat/internal/llm/openai"
	"policychat/internal/logger"
	"policychat/internal/retriever"
	"policychat/internal/session"
	"policychat/internal/tui"
	"policychat/internal/vectorstore"
	"policychat/internal/vectorstore/memory"
	"policychat/internal/vectorstore/qdrant"
	"policychat/internal/vectorstore/sqlite"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/policychat/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	records, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		zl.Fatal("failed to load dataset", zap.Error(err))
	}
	zl.Info("loaded policy records", zap.Int("count", len(records)), zap.String("path", cfg.Dataset.Path))

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			zl.Fatal("openai embedder config missing")
		}
		client, err := openaiemb.NewClient(openaiemb.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			zl.Fatal("openai embedder init failed", zap.Error(err))
		}
		emb = client
	default:
		zl.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "sqlite", "":
		if sqlite.Exists(cfg.VectorStore.SQLite.Dir) {
			zl.Info("found persisted vector store", zap.String("dir", cfg.VectorStore.SQLite.Dir))
		}
		store, err := sqlite.NewStorage(cfg.VectorStore.SQLite.Dir)
		if err != nil {
			zl.Fatal("sqlite store init failed", zap.Error(err))
		}
		st = store
	case "memory":
		st = memory.NewStorage()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			zl.Fatal("qdrant config missing")
		}
		st = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		zl.Fatal("unknown vector store", zap.String("type", cfg.VectorStore.Type))
	}
	defer st.Close()

	var gen llm.Generator
	switch cfg.LLM.Type {
	case "openai", "":
		client, err := openaillm.NewClient(openaillm.Config{
			BaseURL:   cfg.LLM.OpenAI.BaseURL,
			APIKeyEnv: cfg.LLM.OpenAI.APIKeyEnv,
			Model:     cfg.LLM.OpenAI.Model,
			Timeout:   time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			zl.Fatal("openai generator init failed", zap.Error(err))
		}
		gen = client
	case "ollama":
		gen = ollama.NewClient(ollama.Config{
			BaseURL: cfg.LLM.Ollama.BaseURL,
			Model:   cfg.LLM.Ollama.Model,
			Timeout: time.Duration(cfg.LLM.Ollama.TimeoutSecs) * time.Second,
		})
	default:
		zl.Fatal("unknown llm", zap.String("type", cfg.LLM.Type))
	}

	builder := index.NewBuilder(emb, st, zl)
	if err := builder.Build(context.Background(), records); err != nil {
		zl.Fatal("index build failed", zap.Error(err))
	}

	ret := retriever.New(dataset.BuildLookup(records), emb, st, cfg.Retriever.TopK, cfg.Retriever.MinScore, zl)
	asst := assistant.New(guardrail.NewEngine(), ret, gen, session.New(), cfg.Assistant.HistoryWindow, zl)

	m := tui.New(asst)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		zl.Fatal("tui failed", zap.Error(err))
	}
}
