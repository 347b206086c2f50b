// Package services contains server-side business logic. UserService runs the
// registration and authentication flows and the profile lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// PasswordHasher is implemented by *auth.PasswordHasher.
type PasswordHasher interface {
	HashContext(ctx context.Context, password string) (string, error)
	VerifyContext(ctx context.Context, password, digest string) (bool, error)
}

// TokenIssuer is implemented by *auth.TokenService.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type RegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string
	User  models.PublicUser
}

type ProfileResult struct {
	Message string
	User    models.PublicUser
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	validate    *validator.Validate
	logger      logging.Logger

	// dummyDigest is verified against when the email is unknown, so that
	// both login failures cost one hash evaluation.
	dummyDigest func() string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "users"),
	}

	s.dummyDigest = sync.OnceValue(func() string {
		d, err := hasher.HashContext(context.Background(), string(common.GenerateRandByteArray(16)))
		if err != nil {
			s.logger.Error(context.Background(), "error preparing dummy digest", "error", err)
			return ""
		}
		return d
	})

	return s
}

// Register validates the input, stores the user with a hashed password and
// issues a token for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validateRegister(in); err != nil {
		return nil, err
	}

	digest, err := s.hasher.HashContext(ctx, in.Password)
	if err != nil {
		return nil, s.internal(ctx, "error hashing password", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: digest}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.FindByEmail(ctx, in.Email, false)
		if err == nil {
			return common.ErrEmailInUse
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error looking up user: %w", err)
		}

		// the unique constraint is the authority; the lookup above only
		// spares a failed insert in the common case
		if _, err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrDuplicateEmail) {
				return common.ErrEmailInUse
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrEmailInUse) {
			return nil, common.ErrEmailInUse
		}
		return nil, s.internal(ctx, "error registering user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	return s.authResult(ctx, user)
}

// Login checks email and password. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)

	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, common.ErrMissingCredentials
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, in.Email, true)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.internal(ctx, "error looking up user", err)
		}
		if d := s.dummyDigest(); d != "" {
			if _, err := s.hasher.VerifyContext(ctx, in.Password, d); err != nil {
				return nil, s.internal(ctx, "error verifying password", err)
			}
		}
		return nil, common.ErrBadCredentials
	}

	ok, err := s.hasher.VerifyContext(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "error verifying password", err)
	}
	if !ok {
		return nil, common.ErrBadCredentials
	}

	return s.authResult(ctx, user)
}

// Profile returns the greeting and public data of the authenticated user.
func (s *UserService) Profile(ctx context.Context, userID string) (*ProfileResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// token outlived its user
			return nil, common.NewError(common.ErrUnauthorized, "User not found")
		}
		return nil, s.internal(ctx, "error loading profile", err)
	}

	return &ProfileResult{
		Message: fmt.Sprintf("Welcome %s!", user.Name),
		User:    user.Public(),
	}, nil
}

func (s *UserService) authResult(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "error issuing token", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// validateRegister reports the first failed rule in the order: presence,
// confirmation, length.
func (s *UserService) validateRegister(in RegisterInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return common.ErrMissingFields
	}

	tags := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		tags[fe.Tag()] = true
	}

	switch {
	case tags["required"]:
		return common.ErrMissingFields
	case tags["eqfield"]:
		return common.ErrPasswordMismatch
	case tags["min"]:
		return common.ErrPasswordTooShort
	default:
		return common.ErrMissingFields
	}
}

func (s *UserService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, msg, err)
}
