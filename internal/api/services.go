package api

import (
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth           *service.AuthService
	Session        *service.SessionService
	User           *service.UserService
	Book           *service.BookService
	Mark           *service.MarkService
	Review         *service.ReviewService
	ReadingSession *service.ReadingSessionService
	Stats          *service.StatsService
	Social         *service.SocialService
}
