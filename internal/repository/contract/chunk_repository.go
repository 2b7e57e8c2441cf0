package contract

import (
	"context"

	"compliance-audit-be/internal/entity"

	"github.com/google/uuid"
)

type ChunkRepository interface {
	FindByChunkId(ctx context.Context, chunkId string) (*entity.Chunk, error)
	// FindWindow returns the chunks within +-window ordinals of the given
	// ordinal in one document, ordered by ordinal. The center chunk is included.
	FindWindow(ctx context.Context, documentId uuid.UUID, ordinal, window int) ([]*entity.Chunk, error)
	// FindPending returns chunks of the document that have no result row for
	// the audit yet, ordered by ordinal. limit <= 0 means no limit.
	FindPending(ctx context.Context, documentId, auditId uuid.UUID, limit int) ([]*entity.Chunk, error)
	CountPending(ctx context.Context, documentId, auditId uuid.UUID) (int64, error)
	CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error)
}
