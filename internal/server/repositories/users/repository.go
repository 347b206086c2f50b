// Package users is the credential store: persistence of user accounts with
// a unique email per account.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type Repository interface {
	// Create assigns the user an ID and stores it. A taken email yields
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindByEmail returns common.ErrorNotFound when no user has the email.
	// The password hash is only read when withHash is set.
	FindByEmail(ctx context.Context, email string, withHash bool) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}
