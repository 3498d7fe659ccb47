package postgres

import (
	"RetailPulse/internal/core/domain"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// fatalSQLStates are conditions a retry cannot fix: the schema or the
// credentials are wrong.
var fatalSQLStates = map[string]struct{}{
	"28000": {}, // invalid_authorization_specification
	"28P01": {}, // invalid_password
	"3D000": {}, // invalid_catalog_name
	"42P01": {}, // undefined_table
	"42703": {}, // undefined_column
	"42501": {}, // insufficient_privilege
}

// classifyError wraps err into a *domain.StoreError.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := fatalSQLStates[pgErr.Code]; ok {
			return domain.NewFatalError(op, err)
		}
		return domain.NewTransientError(op, err)
	}

	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &parseErr) {
		return domain.NewFatalError(op, err)
	}

	return domain.NewTransientError(op, err)
}
