package services

import (
	"context"
	"fmt"

	"nfl-survivor-go/logging"
)

// UserService covers user maintenance
type UserService struct {
	userRepo UserRepository
	logger   *logging.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logging.WithPrefix("UserService"),
	}
}

// MigrateEliminatedWeek marks every user that predates the eliminatedWeek
// field as active
func (s *UserService) MigrateEliminatedWeek(ctx context.Context) (int64, error) {
	n, err := s.userRepo.MigrateEliminatedWeek(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate eliminatedWeek: %w", err)
	}
	s.logger.Infof("Migrated %d users", n)
	return n, nil
}
