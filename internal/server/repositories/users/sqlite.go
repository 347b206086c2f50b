package users

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{
		db: db,
		dialect: dialect{
			placeholder:       dbx.Question,
			isUniqueViolation: isSQLiteUniqueViolation,
		},
	}
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
