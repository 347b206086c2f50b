package users

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{
		db: db,
		dialect: dialect{
			placeholder:       dbx.Dollar,
			isUniqueViolation: isPostgresUniqueViolation,
		},
	}
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
