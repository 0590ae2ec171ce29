package repository

import (
	"context"

	"github.com/gatewise/backend/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	GetCredentialsByName(ctx context.Context, name string) (*domain.Credentials, error)
}
