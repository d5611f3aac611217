package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/repository"
)

var ErrMissingObjectID = errors.New("index event has no object id")

// Indexer keeps the search index in step with index events.
type Indexer struct {
	repo   repository.SearchIndexRepository
	logger *zerolog.Logger
}

func NewIndexer(repo repository.SearchIndexRepository, logger *zerolog.Logger) *Indexer {
	return &Indexer{repo: repo, logger: logger}
}

// Register subscribes the indexer to all index events of bus.
func (i *Indexer) Register(bus *Bus) {
	bus.Subscribe(CreateIndex, i.Upsert)
	bus.Subscribe(UpdateIndex, i.Upsert)
	bus.Subscribe(DeleteIndex, i.Delete)
}

func (i *Indexer) Upsert(ctx context.Context, evt Event) error {
	if evt.Payload.ObjectID == "" {
		return ErrMissingObjectID
	}

	err := i.repo.Upsert(ctx, repository.SearchRecord{
		ObjectID: evt.Payload.ObjectID,
		Resource: evt.Payload.Resource,
		Title:    evt.Payload.Title,
		Image:    evt.Payload.Image,
		Keywords: evt.Payload.Keywords,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert search record: %w", err)
	}

	i.logger.Debug().
		Str("resource", evt.Payload.Resource).
		Str("object_id", evt.Payload.ObjectID).
		Msg("search record indexed")
	return nil
}

func (i *Indexer) Delete(ctx context.Context, evt Event) error {
	if evt.Payload.ObjectID == "" {
		return ErrMissingObjectID
	}

	if err := i.repo.Delete(ctx, evt.Payload.Resource, evt.Payload.ObjectID); err != nil {
		return fmt.Errorf("failed to delete search record: %w", err)
	}

	return nil
}
