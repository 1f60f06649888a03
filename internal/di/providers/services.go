package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/media/images"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// ProvideClock provides the wall clock used for streak and session decisions.
func ProvideClock(i do.Injector) (clock.Clock, error) {
	return clock.System{}, nil
}

// ProvideSessionService provides the login session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	db := do.MustInvoke[*SQLiteHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(sessions.Store, db.Store, tokenService, clk, log.Logger), nil
}

// ProvideUserService provides the user account service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(db.Store, sessionService, clk, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	userService := do.MustInvoke[*service.UserService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(db.Store, tokenService, sessionService, userService, clk, log.Logger), nil
}

// ProvideBookService provides the catalog service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	covers := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(db.Store, index.SearchIndex, covers, log.Logger), nil
}

// ProvideMarkService provides the book marking service.
func ProvideMarkService(i do.Injector) (*service.MarkService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMarkService(db.Store, clk, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(db.Store, log.Logger), nil
}

// ProvideReadingSessionService provides the reading session service.
func ProvideReadingSessionService(i do.Injector) (*service.ReadingSessionService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	userService := do.MustInvoke[*service.UserService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadingSessionService(db.Store, userService, clk, log.Logger), nil
}

// ProvideStatsService provides the reading statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(db.Store, clk, log.Logger), nil
}

// ProvideSocialService provides the follow graph and activity feed service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	db := do.MustInvoke[*SQLiteHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(db.Store, clk, log.Logger), nil
}
