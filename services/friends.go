package services

import (
	"fmt"
	"log/slog"
	"social-lab/domain"
	"social-lab/errors"
	"social-lab/repositories"

	"github.com/samber/lo"
)

// findUser resolves id or fails with NotFound.
func findUser(users repositories.IUserRepository, id int64) (domain.User, error) {
	user, found, err := users.FindOne(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("find user %d: %w", id, err)
	}
	if !found {
		return domain.User{}, errors.NotFound("user %d does not exist", id)
	}
	return user, nil
}

// friendIDs derives the friend list of id from the friendship records.
func friendIDs(friendships repositories.IFriendshipRepository, id int64) ([]int64, error) {
	all, err := friendships.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	return lo.FilterMap(all, func(f domain.Friendship, _ int) (int64, bool) {
		return f.Other(id), f.Involves(id)
	}), nil
}

// listFriendships projects every friendship of id into the other party and the date.
// Friendships pointing to a user that no longer exists are skipped.
func listFriendships(log *slog.Logger, users repositories.IUserRepository,
	friendships repositories.IFriendshipRepository, id int64) ([]domain.FriendshipDTO, error) {
	if _, err := findUser(users, id); err != nil {
		return nil, err
	}
	all, err := friendships.FindAll()
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	dtos := make([]domain.FriendshipDTO, 0)
	for _, f := range all {
		if !f.Involves(id) {
			continue
		}
		other, found, err := users.FindOne(f.Other(id))
		if err != nil {
			return nil, fmt.Errorf("find user %d: %w", f.Other(id), err)
		}
		if !found {
			log.Warn("Dangling friendship", "user", id, "missing", f.Other(id))
			continue
		}
		dtos = append(dtos, domain.FriendshipDTO{User: other, Date: f.Date})
	}
	return dtos, nil
}
