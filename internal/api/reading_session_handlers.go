package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerReadingSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-reading-session",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reading-sessions",
		Summary:     "Start reading session",
		Description: "Starts a reading session for a book. Include end_time to log a completed session in one call.",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleStartSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "end-reading-session",
		Method:      http.MethodPut,
		Path:        "/api/v1/reading-sessions/{id}",
		Summary:     "End reading session",
		Description: "Ends an open session. end_time defaults to the current time.",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEndSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-my-reading-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/reading-sessions",
		Summary:     "List my reading sessions",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-user-reading-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/reading-sessions",
		Summary:     "List a user's reading sessions",
		Tags:        []string{"Reading Sessions"},
	}, s.handleListUserSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-book-reading-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reading-sessions",
		Summary:     "List a book's reading sessions",
		Tags:        []string{"Reading Sessions"},
	}, s.handleListBookSessions)
}

// === DTOs ===

// SessionOutput wraps a single reading session for Huma.
type SessionOutput struct {
	Body domain.ReadingSession
}

// SessionListOutput wraps a page of reading sessions for Huma.
type SessionListOutput struct {
	Body struct {
		Sessions []*domain.ReadingSession `json:"sessions" doc:"Sessions, most recent start first"`
		Count    int                      `json:"count" doc:"Number of sessions in this page"`
	}
}

// StartSessionInput wraps the start request for Huma.
type StartSessionInput struct {
	BookIDPathInput
	Body struct {
		StartTime *time.Time `json:"start_time,omitempty" doc:"Session start (defaults to now)"`
		EndTime   *time.Time `json:"end_time,omitempty" doc:"Session end, for logging a completed session"`
	}
}

// SessionIDPathInput identifies a reading session by path parameter.
type SessionIDPathInput struct {
	ID string `path:"id" maxLength:"100" doc:"Reading session ID"`
}

// EndSessionInput wraps the end request for Huma.
type EndSessionInput struct {
	SessionIDPathInput
	Body struct {
		EndTime *time.Time `json:"end_time,omitempty" doc:"Session end (defaults to now)"`
	}
}

// ListSessionsInput carries pagination for session listings keyed by path ID.
type ListSessionsInput struct {
	ID     string `path:"id" maxLength:"100" doc:"User or book ID"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// MySessionsInput carries pagination for the caller's sessions.
type MySessionsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// === Handlers ===

func (s *Server) handleStartSession(ctx context.Context, input *StartSessionInput) (*SessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ReadingSession.StartSession(ctx, userID, service.StartSessionRequest{
		BookID:    input.ID,
		StartTime: input.Body.StartTime,
		EndTime:   input.Body.EndTime,
	})
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *session}, nil
}

func (s *Server) handleEndSession(ctx context.Context, input *EndSessionInput) (*SessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ReadingSession.EndSession(ctx, userID, input.ID, input.Body.EndTime)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *session}, nil
}

func (s *Server) handleListMySessions(ctx context.Context, input *MySessionsInput) (*SessionListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	return s.listUserSessions(ctx, userID, input.Limit, input.Offset)
}

func (s *Server) handleListUserSessions(ctx context.Context, input *ListSessionsInput) (*SessionListOutput, error) {
	// Listing another user's history is public, like their profile.
	if _, err := s.services.User.GetUser(ctx, input.ID); err != nil {
		return nil, err
	}

	return s.listUserSessions(ctx, input.ID, input.Limit, input.Offset)
}

func (s *Server) handleListBookSessions(ctx context.Context, input *ListSessionsInput) (*SessionListOutput, error) {
	if _, err := s.services.Book.GetBook(ctx, input.ID); err != nil {
		return nil, err
	}

	sessions, err := s.services.ReadingSession.ListBookSessions(ctx, input.ID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &SessionListOutput{}
	out.Body.Sessions = sessions
	out.Body.Count = len(sessions)
	return out, nil
}

func (s *Server) listUserSessions(ctx context.Context, userID string, limit, offset int) (*SessionListOutput, error) {
	sessions, err := s.services.ReadingSession.ListUserSessions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := &SessionListOutput{}
	out.Body.Sessions = sessions
	out.Body.Count = len(sessions)
	return out, nil
}
