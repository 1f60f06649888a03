package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/api"
	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db := do.MustInvoke[*SQLiteHandle](i)
	covers := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:           do.MustInvoke[*service.AuthService](i),
		Session:        do.MustInvoke[*service.SessionService](i),
		User:           do.MustInvoke[*service.UserService](i),
		Book:           do.MustInvoke[*service.BookService](i),
		Mark:           do.MustInvoke[*service.MarkService](i),
		Review:         do.MustInvoke[*service.ReviewService](i),
		ReadingSession: do.MustInvoke[*service.ReadingSessionService](i),
		Stats:          do.MustInvoke[*service.StatsService](i),
		Social:         do.MustInvoke[*service.SocialService](i),
	}

	handler := api.NewServer(cfg, db.Store, services, covers, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
