package postgres

import (
	"database/sql"
	"errors"
	"net"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/data/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type Postgres struct {
	db  *sqlx.DB
	cfg *config.Config
}

func NewPostgres(cfg *config.Config, db *sqlx.DB) *Postgres {
	return &Postgres{db: db, cfg: cfg}
}

// mapError translates driver-level failures into repository sentinels so
// callers never depend on pgx types.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return repository.ErrAlreadyExists
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08": // connection exception class
			return repository.ErrUnavailable
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) {
		return repository.ErrUnavailable
	}

	return err
}
