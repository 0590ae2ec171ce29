package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/pkg/passhash"
	"github.com/gatewise/backend/repository"
)

// PasswordHasher derives and verifies salted password hashes.
type PasswordHasher interface {
	Hash(password, salt string) (string, error)
	Verify(password, salt, encodedHash string) (bool, error)
}

// Config carries the tunable parts of the authentication flow.
type Config struct {
	SessionTTL        time.Duration
	MinPasswordLength int
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   PasswordHasher
	cfg      Config
	tracer   trace.Tracer
	logger   *zap.Logger

	// decoy credentials verified on the unknown-user path so that sign-in
	// latency does not reveal whether the username exists
	decoySalt string
	decoyHash string
}

func New(users repository.UserRepository, sessions repository.SessionRepository, hasher PasswordHasher, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 90 * 24 * time.Hour
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}

	uc := &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		cfg:      cfg,
		tracer:   otel.Tracer("usecase/auth"),
		logger:   logger,
	}

	if salt, err := passhash.GenerateSalt(); err == nil {
		if hash, err := hasher.Hash(uuid.NewString(), salt); err == nil {
			uc.decoySalt = salt
			uc.decoyHash = hash
		}
	}
	return uc
}

// SignUp registers a new user. The password is validated before any store
// access; the hashing step runs inside its own trace span.
func (uc *UseCase) SignUp(ctx context.Context, username, password string) error {
	if username == "" {
		return domain.ErrInvalidPayload
	}
	if len(password) < uc.cfg.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	_, err := uc.users.GetByName(ctx, username)
	switch {
	case err == nil:
		trace.SpanFromContext(ctx).AddEvent("user already exists",
			trace.WithAttributes(attribute.String("user.username", username)))
		return domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}

	salt, err := passhash.GenerateSalt()
	if err != nil {
		return err
	}

	_, span := uc.tracer.Start(ctx, "hashPassword",
		trace.WithAttributes(attribute.String("user.username", username)))
	hash, err := uc.hasher.Hash(password, salt)
	span.End()
	if err != nil {
		return err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         username,
		PasswordHash: hash,
		Salt:         salt,
	}
	// The users table carries a UNIQUE constraint on name, so a concurrent
	// sign-up racing past the lookup above still surfaces as ErrUserExists.
	if err := uc.users.Create(ctx, user); err != nil {
		return err
	}

	uc.logger.Info("user created", zap.String("username", username))
	return nil
}

// SignIn verifies credentials and issues a session. An unknown username and a
// wrong password both return ErrInvalidCredentials.
func (uc *UseCase) SignIn(ctx context.Context, username, password string) (*domain.Session, error) {
	creds, err := uc.users.GetCredentialsByName(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// burn the same amount of work as a real verification
			_, _ = uc.hasher.Verify(password, uc.decoySalt, uc.decoyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := uc.hasher.Verify(password, creds.Salt, creds.PasswordHash)
	if err != nil {
		uc.logger.Warn("stored hash could not be verified", zap.String("username", username), zap.Error(err))
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    creds.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut removes the session record. Best-effort: the caller clears the
// cookie unconditionally and never sees a failure here.
func (uc *UseCase) SignOut(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		uc.logger.Debug("session delete failed on sign-out", zap.Error(err))
	}
}
