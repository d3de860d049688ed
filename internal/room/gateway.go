package room

import (
	"context"
	"time"

	"github.com/coedit/coedit/internal/document/repository"
	"github.com/coedit/coedit/pkg/logger"
	"github.com/coedit/coedit/pkg/metrics"
)

// Archiver receives a copy of each successfully persisted content; satisfied
// by the MinIO snapshot store. Optional.
type Archiver interface {
	UploadSnapshot(ctx context.Context, documentID string, content []byte) error
}

// Gateway is the persistence gateway: it overwrites the document's content in
// the durable store, last write wins. Every failure is logged and dropped;
// editing sessions keep running on the in-memory content and nothing
// propagates back to the broadcast path.
type Gateway struct {
	repo     repository.Repository
	archiver Archiver
	timeout  time.Duration
}

func NewGateway(repo repository.Repository, archiver Archiver) *Gateway {
	return &Gateway{repo: repo, archiver: archiver, timeout: 10 * time.Second}
}

func (g *Gateway) Persist(documentID, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	if err := g.repo.SetContent(ctx, documentID, content); err != nil {
		logger.Warnf("persist dropped for document %s: %v", documentID, err)
		metrics.PersistFailures.Inc()
		return
	}
	if g.archiver != nil {
		if err := g.archiver.UploadSnapshot(ctx, documentID, []byte(content)); err != nil {
			logger.Warnf("snapshot upload failed for document %s: %v", documentID, err)
		}
	}
}
