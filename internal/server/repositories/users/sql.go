package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/google/uuid"
)

const (
	insertUserQuery = `INSERT INTO users (id, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)`

	selectByEmailQuery = `SELECT id, name, email FROM users
		 WHERE email = $1`

	selectByEmailWithHashQuery = `SELECT id, name, email, password_hash FROM users
		 WHERE email = $1`

	selectByIDQuery = `SELECT id, name, email FROM users
		 WHERE id = $1`
)

// dialect holds what differs between the supported databases.
type dialect struct {
	placeholder       dbx.Placeholder
	isUniqueViolation func(error) bool
}

// SQLRepository implements Repository on top of database/sql.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dialect
}

func (r *SQLRepository) query(q string) string {
	return dbx.Rebind(r.dialect.placeholder, q)
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, r.query(insertUserQuery),
		user.ID, user.Name, user.Email, user.PasswordHash)

	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string, withHash bool) (*models.User, error) {
	user := &models.User{}

	var err error
	if withHash {
		err = r.db.QueryRowContext(ctx, r.query(selectByEmailWithHashQuery), email).
			Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	} else {
		err = r.db.QueryRowContext(ctx, r.query(selectByEmailQuery), email).
			Scan(&user.ID, &user.Name, &user.Email)
	}

	if err != nil {
		return nil, notFoundOr(err)
	}

	return user, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}

	err := r.db.QueryRowContext(ctx, r.query(selectByIDQuery), id).
		Scan(&user.ID, &user.Name, &user.Email)

	if err != nil {
		return nil, notFoundOr(err)
	}

	return user, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
