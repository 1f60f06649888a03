package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/search"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index when it is empty but the
// catalog is not, such as after the index directory was deleted. Should be
// called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	bookService := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := bookService.SearchDocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	stats, err := bookService.CatalogStats(ctx)
	if err != nil || stats.TotalBooks == 0 {
		return
	}

	log.Info("Search index is empty but books exist, triggering initial reindex",
		"book_count", stats.TotalBooks,
	)

	go func() {
		reindexCtx := context.Background()
		if err := bookService.ReindexAll(reindexCtx); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		} else {
			count, _ := bookService.SearchDocumentCount()
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}
