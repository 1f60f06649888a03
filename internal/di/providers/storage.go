package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
)

// ProvideCoverStorage provides the cover image storage.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	covers, err := images.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("cover storage: %w", err)
	}

	log.Info("Cover storage initialized", "max_upload_bytes", cfg.Covers.MaxUploadBytes)

	return covers, nil
}

// ProvideImageProcessor provides the image processor for cover art.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, cfg.Covers.MaxUploadBytes, log.Logger), nil
}
