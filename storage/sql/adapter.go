package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/storage/types"
)

// DB is the subset of the pgx pool used by the storage
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const saveRoundQuery = `
INSERT INTO quote_rounds (
    id, source_currency, target_currency, amount, winner,
    best_rate, best_converted_amount, succeeded, total_elapsed_ms,
    outcomes, produced_at
)
VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7::numeric, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    winner                = EXCLUDED.winner,
    best_rate             = EXCLUDED.best_rate,
    best_converted_amount = EXCLUDED.best_converted_amount,
    succeeded             = EXCLUDED.succeeded,
    total_elapsed_ms      = EXCLUDED.total_elapsed_ms,
    outcomes              = EXCLUDED.outcomes`

const roundColumns = `
    id, source_currency, target_currency, amount::text, winner,
    best_rate::text, best_converted_amount::text, succeeded,
    total_elapsed_ms, outcomes, produced_at`

type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveRound(ctx context.Context, round *types.Round) error {
	outcomes, err := json.Marshal(round.Outcomes)
	if err != nil {
		return fmt.Errorf("unable to encode outcomes: %w", err)
	}

	if _, err := s.db.Exec(
		ctx,
		saveRoundQuery,
		round.ID,
		round.Source,
		round.Target,
		round.Amount.String(),
		round.Winner,
		round.BestRate.String(),
		round.BestConvertedAmount.String(),
		round.Succeeded,
		round.TotalElapsedMs,
		outcomes,
		round.ProducedAt.UTC(),
	); err != nil {
		return fmt.Errorf("unable to save round: %w", err)
	}

	return nil
}

func (s *Storage) Rounds(
	ctx context.Context,
	query *types.RoundQuery,
) (*types.Page[*types.Round], error) {
	var (
		conditions []string
		args       []any
	)

	addCondition := func(column string, value *string) {
		if value == nil {
			return
		}

		args = append(args, *value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addCondition("source_currency", query.Source)
	addCondition("target_currency", query.Target)
	addCondition("winner", query.Winner)

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64

	countQuery := "SELECT count(*) FROM quote_rounds " + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count rounds: %w", err)
	}

	if total == 0 || query.Offset >= total {
		return &types.Page[*types.Round]{
			Results: nil,
			Total:   total,
		}, nil
	}

	args = append(args, storage.NormalizeLimit(query.Limit), query.Offset)

	listQuery := fmt.Sprintf(
		"SELECT %s FROM quote_rounds %s ORDER BY produced_at DESC, id DESC LIMIT $%d OFFSET $%d",
		roundColumns,
		where,
		len(args)-1,
		len(args),
	)

	rows, err := s.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to list rounds: %w", err)
	}
	defer rows.Close()

	results := make([]*types.Round, 0)

	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}

		results = append(results, round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate rounds: %w", err)
	}

	return &types.Page[*types.Round]{
		Results: results,
		Total:   total,
	}, nil
}

func (s *Storage) RoundByID(ctx context.Context, id string) (*types.Round, error) {
	q := fmt.Sprintf("SELECT %s FROM quote_rounds WHERE id = $1", roundColumns)

	round, err := scanRound(s.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrRoundNotFound
		}

		return nil, err
	}

	return round, nil
}

// scanRound scans a single row selected with roundColumns
func scanRound(row pgx.Row) (*types.Round, error) {
	var (
		round types.Round

		amount, bestRate, bestConverted string
		outcomes                        []byte
		producedAt                      time.Time
	)

	if err := row.Scan(
		&round.ID,
		&round.Source,
		&round.Target,
		&amount,
		&round.Winner,
		&bestRate,
		&bestConverted,
		&round.Succeeded,
		&round.TotalElapsedMs,
		&outcomes,
		&producedAt,
	); err != nil {
		return nil, fmt.Errorf("unable to scan round: %w", err)
	}

	var err error

	if round.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("unable to parse amount: %w", err)
	}

	if round.BestRate, err = decimal.NewFromString(bestRate); err != nil {
		return nil, fmt.Errorf("unable to parse best rate: %w", err)
	}

	if round.BestConvertedAmount, err = decimal.NewFromString(bestConverted); err != nil {
		return nil, fmt.Errorf("unable to parse best converted amount: %w", err)
	}

	if err := json.Unmarshal(outcomes, &round.Outcomes); err != nil {
		return nil, fmt.Errorf("unable to decode outcomes: %w", err)
	}

	round.ProducedAt = producedAt.UTC()

	return &round, nil
}
