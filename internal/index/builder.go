package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"policychat/internal/domain"
	"policychat/internal/embedding"
	"policychat/internal/vectorstore"
)

// Builder embeds policy records and persists them into the vector store.
// Building is a one-time batch step that runs before the assistant
// accepts queries.
type Builder struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	logger   *zap.Logger
}

func NewBuilder(embedder embedding.Embedder, store vectorstore.Storage, logger *zap.Logger) *Builder {
	return &Builder{embedder: embedder, store: store, logger: logger}
}

// Build indexes the records. If the store already holds every policy,
// embedding is skipped entirely, so repeated runs over an unchanged
// dataset leave the store identical.
func (b *Builder) Build(ctx context.Context, records []domain.PolicyRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no policy records to index")
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text()
	}
	if err := b.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("preparing embedder: %w", err)
	}

	if count, err := b.store.Count(); err == nil && count >= len(records) {
		b.logger.Info("vector store already populated, skipping indexing",
			zap.Int("stored", count),
			zap.Int("records", len(records)))
		return nil
	}

	vectors := make([][]float64, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec, err := b.embedder.Embed(texts[i])
		if err != nil {
			return fmt.Errorf("embedding %s: %w", records[i].PolicyID, err)
		}
		vectors[i] = vec
	}

	if err := b.store.Init(b.embedder.Dimension()); err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	if err := b.store.Upsert(records, vectors); err != nil {
		return fmt.Errorf("upserting vectors: %w", err)
	}
	b.logger.Info("indexed policy records", zap.Int("count", len(records)))
	return nil
}
