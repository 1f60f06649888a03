package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// SocialService manages the follow graph and the following activity feed.
type SocialService struct {
	db     *sqlite.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(db *sqlite.Store, clk clock.Clock, logger *slog.Logger) *SocialService {
	return &SocialService{
		db:     db,
		clock:  clk,
		logger: logger,
	}
}

// Follow adds a follow edge. Following an already-followed user is a
// no-op; following yourself or a missing user is an error.
func (s *SocialService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return domainerrors.Validation("you cannot follow yourself")
	}

	if _, err := s.db.GetUser(ctx, followedID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("get user: %w", err)
	}

	follow := &domain.Follow{
		FollowerID: followerID,
		FollowedID: followedID,
		FollowedAt: s.clock.Now(),
	}
	if err := s.db.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create follow: %w", err)
	}

	s.logger.Debug("Follow created", "follower_id", followerID, "followed_id", followedID)
	return nil
}

// Unfollow removes a follow edge. Removing one that does not exist is
// a no-op.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := s.db.DeleteFollow(ctx, followerID, followedID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// IsFollowing reports whether follower follows followed.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	following, err := s.db.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return following, nil
}

// ListFollowing returns the users a user follows, newest follow first.
func (s *SocialService) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*domain.User, error) {
	users, err := s.db.ListFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return users, nil
}

// ListFollowers returns a user's followers, newest follow first.
func (s *SocialService) ListFollowers(ctx context.Context, userID string, limit, offset int) ([]*domain.User, error) {
	users, err := s.db.ListFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return users, nil
}

// GetActivityFeed returns recent activity from the users a user follows:
// finished reading sessions and posted reviews, newest first.
func (s *SocialService) GetActivityFeed(ctx context.Context, userID string, limit, offset int) ([]*domain.Activity, error) {
	activity, err := s.db.GetFollowingActivity(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("following activity: %w", err)
	}
	return activity, nil
}
