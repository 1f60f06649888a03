package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the calling user's name or password. A password change revokes all other login sessions.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-me",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me",
		Summary:     "Delete account",
		Description: "Soft-deletes the calling user's account and revokes all sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-user-profile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/profile",
		Summary:     "Get public profile",
		Description: "Returns a user's public profile: name, streak, follower counts",
		Tags:        []string{"Users"},
	}, s.handleGetProfile)
}

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UpdateMeInput wraps profile update fields for Huma.
type UpdateMeInput struct {
	Body struct {
		Name     *string `json:"name,omitempty" doc:"New display name"`
		Password *string `json:"password,omitempty" doc:"New password"`
	}
}

// ProfileOutput wraps a public profile for Huma.
type ProfileOutput struct {
	Body domain.Profile
}

// UserIDPathInput identifies a user by path parameter.
type UserIDPathInput struct {
	ID string `path:"id" maxLength:"100" doc:"User ID"`
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.UpdateMe(ctx, userID, service.UpdateMeRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleDeleteMe(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.User.DeleteAccount(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Account deleted"}}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *UserIDPathInput) (*ProfileOutput, error) {
	profile, err := s.services.User.GetProfile(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}

func mapUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		IsAdmin:       user.IsAdmin,
		CurrentStreak: user.CurrentStreak,
		LastStreak:    user.LastStreak,
		CreatedAt:     user.CreatedAt,
		LastLoginAt:   user.LastLoginAt,
	}
	if user.LastActiveDate != nil {
		resp.LastActiveDate = user.LastActiveDate.String()
	}
	return resp
}
