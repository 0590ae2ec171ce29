package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

// GetProfile returns the public view of a user. The user may have been
// deleted after the session was issued, in which case ErrUserNotFound
// propagates to the caller.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (domain.PublicView, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return domain.PublicView{}, err
	}
	return user.Public(), nil
}
