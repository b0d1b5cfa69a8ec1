package sql

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/storage/types"
)

type (
	execDelegate     func(context.Context, string, ...any) (pgconn.CommandTag, error)
	queryRowDelegate func(context.Context, string, ...any) pgx.Row
)

type mockDB struct {
	execFn     execDelegate
	queryRowFn queryRowDelegate
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}

	return pgconn.CommandTag{}, nil
}

func (m *mockDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}

	return &mockRow{err: pgx.ErrNoRows}
}

// mockRow scans the given values into the destinations, in order
type mockRow struct {
	err    error
	values []any
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr, _ = r.values[i].(string)
		case *bool:
			*ptr, _ = r.values[i].(bool)
		case *float64:
			*ptr, _ = r.values[i].(float64)
		case *int64:
			*ptr, _ = r.values[i].(int64)
		case *[]byte:
			*ptr, _ = r.values[i].([]byte)
		case *time.Time:
			*ptr, _ = r.values[i].(time.Time)
		default:
			return errors.New("unsupported destination")
		}
	}

	return nil
}

func TestStorage_SaveRound(t *testing.T) {
	t.Parallel()

	t.Run("arguments", func(t *testing.T) {
		t.Parallel()

		var captured []any

		s := NewStorage(&mockDB{
			execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				assert.Contains(t, sql, "INSERT INTO quote_rounds")

				captured = args

				return pgconn.CommandTag{}, nil
			},
		})

		round := &types.Round{
			ID:       "round",
			Source:   "USD",
			Target:   "EUR",
			Amount:   decimal.RequireFromString("100.5"),
			Winner:   "API2",
			BestRate: decimal.RequireFromString("0.86"),
			Outcomes: []types.OutcomeRecord{{Provider: "API2", Success: true}},
		}

		require.NoError(t, s.SaveRound(context.Background(), round))
		require.Len(t, captured, 11)

		assert.Equal(t, "round", captured[0])
		assert.Equal(t, "100.5", captured[3])
		assert.Equal(t, "API2", captured[4])
		assert.Equal(t, "0.86", captured[5])

		var outcomes []types.OutcomeRecord
		require.NoError(t, json.Unmarshal(captured[9].([]byte), &outcomes))
		assert.Equal(t, round.Outcomes[0].Provider, outcomes[0].Provider)
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()

		s := NewStorage(&mockDB{
			execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("boom")
			},
		})

		assert.Error(t, s.SaveRound(context.Background(), &types.Round{}))
	})
}

func TestStorage_RoundByID(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, err := NewStorage(&mockDB{}).RoundByID(context.Background(), "missing")
		assert.ErrorIs(t, err, storage.ErrRoundNotFound)
	})

	t.Run("scan", func(t *testing.T) {
		t.Parallel()

		producedAt := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

		s := NewStorage(&mockDB{
			queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
				assert.Equal(t, []any{"round"}, args)

				return &mockRow{values: []any{
					"round", "USD", "EUR", "100", "API1",
					"0.85", "85", true,
					float64(12), []byte(`[{"provider":"API1","success":true}]`), producedAt,
				}}
			},
		})

		round, err := s.RoundByID(context.Background(), "round")
		require.NoError(t, err)

		assert.Equal(t, "API1", round.Winner)
		assert.True(t, decimal.NewFromInt(85).Equal(round.BestConvertedAmount))
		require.Len(t, round.Outcomes, 1)
		assert.True(t, round.Outcomes[0].Success)
		assert.Equal(t, producedAt, round.ProducedAt)
	})
}

func TestStorage_Rounds(t *testing.T) {
	t.Parallel()

	t.Run("empty count skips listing", func(t *testing.T) {
		t.Parallel()

		source := "USD"

		s := NewStorage(&mockDB{
			queryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
				assert.Contains(t, sql, "source_currency = $1")
				assert.Equal(t, []any{"USD"}, args)

				return &mockRow{values: []any{int64(0)}}
			},
		})

		page, err := s.Rounds(context.Background(), &types.RoundQuery{Source: &source})
		require.NoError(t, err)

		assert.Empty(t, page.Results)
		assert.Equal(t, int64(0), page.Total)
	})
}
