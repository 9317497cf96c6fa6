package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avolkov/stockpad/data/repository"
	"github.com/avolkov/stockpad/internal/converter/dbConverter"
	"github.com/avolkov/stockpad/internal/model"
	"github.com/avolkov/stockpad/internal/model/dbModel"
	"github.com/avolkov/stockpad/utils"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// updatableColumns is the closed set of columns UpdateEntryField may touch.
// Anything else is a programming error on the caller side.
var updatableColumns = map[string]struct{}{
	"buy_target":  {},
	"sell_target": {},
	"price_tag":   {},
	"tag_percent": {},
	"sentiment":   {},
	"comments":    {},
}

func (r *Postgres) InsertEntry(ctx context.Context, ticker string) (entry model.WatchlistEntry, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertEntry"
	query := `
		INSERT INTO watchlist(ticker)
		VALUES($1)
		RETURNING ticker, buy_target, sell_target, price_tag, tag_percent, sentiment, comments, created_at
		`

	slog.Debug("InsertEntry start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertEntry failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertEntry completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbEntry := dbModel.WatchlistEntry{}
	err = r.db.QueryRowxContext(ctx, query, ticker).StructScan(&dbEntry)
	if err != nil {
		return model.WatchlistEntry{}, mapError(err)
	}

	return dbConverter.ConvertWatchlistEntry(dbEntry), nil
}

func (r *Postgres) GetEntries(ctx context.Context) (entries []model.WatchlistEntry, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetEntries"
	query := `
		SELECT ticker, buy_target, sell_target, price_tag, tag_percent, sentiment, comments, created_at
		FROM watchlist
		ORDER BY ticker
		`

	slog.Debug("GetEntries start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetEntries failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetEntries completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}

	defer rows.Close()

	for rows.Next() {
		var dbEntry dbModel.WatchlistEntry
		err = rows.StructScan(&dbEntry)
		if err != nil {
			return nil, mapError(err)
		}
		entries = append(entries, dbConverter.ConvertWatchlistEntry(dbEntry))
	}

	return entries, nil
}

// UpdateEntryField sets a single annotation column. value must be a driver
// value the column accepts (decimal.NullDecimal or sql.NullString); passing
// the same value twice is a no-op on the stored row.
func (r *Postgres) UpdateEntryField(ctx context.Context, ticker, column string, value any) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateEntryField"
	params := map[string]any{
		"ticker": ticker,
		"column": column,
		"value":  value,
	}

	if _, ok := updatableColumns[column]; !ok {
		return fmt.Errorf("column %s is not updatable", column)
	}

	query := fmt.Sprintf(`UPDATE watchlist SET %s = $1 WHERE ticker = $2`, column)

	slog.Debug("UpdateEntryField start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error("UpdateEntryField failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateEntryField completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.db.ExecContext(ctx, query, value, ticker)
	if err != nil {
		return mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteEntry removes a row by ticker. Deleting an absent ticker succeeds.
func (r *Postgres) DeleteEntry(ctx context.Context, ticker string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteEntry"

	query := `
		DELETE FROM watchlist
		WHERE ticker = $1
		`

	slog.Debug("DeleteEntry start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeleteEntry failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteEntry completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.db.ExecContext(ctx, query, ticker)
	if err != nil {
		return mapError(err)
	}

	return nil
}
