// Command ingest builds or refreshes the persisted policy index and runs
// a few retrieval smoke queries, without starting the chat loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"policychat/internal/config"
	"policychat/internal/dataset"
	"policychat/internal/embedding"
	openaiemb "policychat/internal/embedding/openai"
	"policychat/internal/embedding/tfidf"
	"policychat/internal/index"
	"policychat/internal/logger"
	"policychat/internal/retriever"
	"policychat/internal/vectorstore"
	"policychat/internal/vectorstore/memory"
	"policychat/internal/vectorstore/qdrant"
	"policychat/internal/vectorstore/sqlite"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
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

	builder := index.NewBuilder(emb, st, zl)
	if err := builder.Build(context.Background(), records); err != nil {
		zl.Fatal("index build failed", zap.Error(err))
	}

	// Smoke-check the two retrieval paths against the fresh index.
	ret := retriever.New(dataset.BuildLookup(records), emb, st, cfg.Retriever.TopK, cfg.Retriever.MinScore, zl)
	for _, q := range []string{
		"What is the premium for policy " + records[0].PolicyID + "?",
		"Which policies renew soon?",
	} {
		result, err := ret.Resolve(context.Background(), q)
		if err != nil {
			fmt.Printf("query %q: %v\n", q, err)
			continue
		}
		fmt.Printf("query %q: %d record(s), exact=%v\n", q, len(result.Records), result.Exact)
	}
}
