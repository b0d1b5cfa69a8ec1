package mock

import (
	"context"

	"github.com/sig-0/fxcompare/storage/types"
)

type (
	SaveRoundDelegate func(context.Context, *types.Round) error
	RoundsDelegate    func(context.Context, *types.RoundQuery) (*types.Page[*types.Round], error)
	RoundByIDDelegate func(context.Context, string) (*types.Round, error)
)

type Storage struct {
	SaveRoundFn SaveRoundDelegate
	RoundsFn    RoundsDelegate
	RoundByIDFn RoundByIDDelegate
}

func (m *Storage) SaveRound(ctx context.Context, round *types.Round) error {
	if m.SaveRoundFn != nil {
		return m.SaveRoundFn(ctx, round)
	}

	return nil
}

func (m *Storage) Rounds(
	ctx context.Context,
	query *types.RoundQuery,
) (*types.Page[*types.Round], error) {
	if m.RoundsFn != nil {
		return m.RoundsFn(ctx, query)
	}

	return nil, nil
}

func (m *Storage) RoundByID(ctx context.Context, id string) (*types.Round, error) {
	if m.RoundByIDFn != nil {
		return m.RoundByIDFn(ctx, id)
	}

	return nil, nil
}
