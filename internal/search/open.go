package search

import (
	"context"
	"fmt"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

// Repository is a content.Repository that may hold resources.
type Repository interface {
	content.Repository
	DocCounter
	Close() error
}

// Open returns the bleve index at indexPath, seeding it from src when it is
// empty. If the index cannot be opened the scan Engine over src is returned
// instead, so browsing keeps working with a locked or corrupt index.
func Open(ctx context.Context, indexPath string, src ItemSource) (Repository, error) {
	idx, err := OpenIndex(indexPath)
	if err != nil {
		debuglog.Warnf("search index unavailable, scanning store instead: %v", err)
		return scanRepository{NewEngine(src)}, nil
	}

	n, err := idx.DocCount()
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("count index documents: %w", err)
	}
	if n == 0 {
		if _, err := idx.Reindex(ctx, src); err != nil {
			idx.Close()
			return nil, fmt.Errorf("seed index: %w", err)
		}
	}
	return idx, nil
}

type scanRepository struct {
	*Engine
}

func (scanRepository) Close() error { return nil }
