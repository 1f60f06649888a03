package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "follow-user",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{id}/follow",
		Summary:     "Follow user",
		Description: "Follows another user. Following twice is a no-op.",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFollow)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfollow-user",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}/follow",
		Summary:     "Unfollow user",
		Description: "Unfollows a user. Unfollowing someone you don't follow is a no-op.",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnfollow)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-follow-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/follow-status",
		Summary:     "Check follow status",
		Description: "Reports whether the calling user follows the given user",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFollowStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-following",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/following",
		Summary:     "List following",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFollowing)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-followers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/followers",
		Summary:     "List followers",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFollowers)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-activity-feed",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/following/activity",
		Summary:     "Activity feed",
		Description: "Recent finished sessions and reviews from followed users, newest first",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleActivityFeed)
}

// === DTOs ===

// FollowStatusOutput reports a follow relationship.
type FollowStatusOutput struct {
	Body struct {
		Following bool `json:"following" doc:"Whether the caller follows this user"`
	}
}

// FollowListInput carries pagination for follow listings.
type FollowListInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// FollowListOutput wraps a page of users for Huma.
type FollowListOutput struct {
	Body struct {
		Users []UserSummary `json:"users" doc:"Users, most recently followed first"`
		Count int           `json:"count" doc:"Number of users in this page"`
	}
}

// UserSummary is the public slice of a user shown in follow listings.
type UserSummary struct {
	ID            string `json:"id" doc:"User ID"`
	Name          string `json:"name" doc:"Display name"`
	CurrentStreak int    `json:"current_streak" doc:"Current reading streak in days"`
}

// ActivityFeedOutput wraps the activity feed for Huma.
type ActivityFeedOutput struct {
	Body struct {
		Activities []*domain.Activity `json:"activities" doc:"Feed entries, newest first"`
		Count      int                `json:"count" doc:"Number of entries in this page"`
	}
}

// === Handlers ===

func (s *Server) handleFollow(ctx context.Context, input *UserIDPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Follow(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Now following"}}, nil
}

func (s *Server) handleUnfollow(ctx context.Context, input *UserIDPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Unfollow(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Unfollowed"}}, nil
}

func (s *Server) handleFollowStatus(ctx context.Context, input *UserIDPathInput) (*FollowStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	following, err := s.services.Social.IsFollowing(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	out := &FollowStatusOutput{}
	out.Body.Following = following
	return out, nil
}

func (s *Server) handleListFollowing(ctx context.Context, input *FollowListInput) (*FollowListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Social.ListFollowing(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return mapFollowList(users), nil
}

func (s *Server) handleListFollowers(ctx context.Context, input *FollowListInput) (*FollowListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Social.ListFollowers(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return mapFollowList(users), nil
}

func (s *Server) handleActivityFeed(ctx context.Context, input *FollowListInput) (*ActivityFeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	activities, err := s.services.Social.GetActivityFeed(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	out := &ActivityFeedOutput{}
	out.Body.Activities = activities
	out.Body.Count = len(activities)
	return out, nil
}

func mapFollowList(users []*domain.User) *FollowListOutput {
	out := &FollowListOutput{}
	out.Body.Users = make([]UserSummary, 0, len(users))
	for _, u := range users {
		out.Body.Users = append(out.Body.Users, UserSummary{
			ID:            u.ID,
			Name:          u.Name,
			CurrentStreak: u.CurrentStreak,
		})
	}
	out.Body.Count = len(out.Body.Users)
	return out
}
