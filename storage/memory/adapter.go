package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sig-0/fxcompare/storage"
	"github.com/sig-0/fxcompare/storage/types"
)

type Storage struct {
	byID   map[string]int
	rounds []types.Round

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		byID: make(map[string]int),
	}
}

func (s *Storage) SaveRound(_ context.Context, r *types.Round) error {
	elem := copyRound(r)
	elem.ProducedAt = elem.ProducedAt.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byID[elem.ID]; ok {
		s.rounds[i] = elem // id is unique

		return nil
	}

	s.byID[elem.ID] = len(s.rounds)
	s.rounds = append(s.rounds, elem)

	return nil
}

func (s *Storage) Rounds(
	_ context.Context,
	query *types.RoundQuery,
) (*types.Page[*types.Round], error) {
	s.mu.RLock()

	out := make([]*types.Round, 0, len(s.rounds))

	for i := range s.rounds {
		v := &s.rounds[i]

		if query.Source != nil && v.Source != *query.Source {
			continue
		}

		if query.Target != nil && v.Target != *query.Target {
			continue
		}

		if query.Winner != nil && v.Winner != *query.Winner {
			continue
		}

		cp := copyRound(v)
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	// newest first, insertion order breaks ties
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProducedAt.After(out[j].ProducedAt)
	})

	total := int64(len(out))
	if total == 0 {
		return &types.Page[*types.Round]{
			Results: nil,
			Total:   0,
		}, nil
	}

	lim := storage.NormalizeLimit(query.Limit)

	off := query.Offset
	if off >= total {
		return &types.Page[*types.Round]{
			Results: nil,
			Total:   total,
		}, nil
	}

	start := int(off)
	end := start + int(lim)

	if end > len(out) {
		end = len(out)
	}

	return &types.Page[*types.Round]{
		Results: out[start:end],
		Total:   total,
	}, nil
}

func (s *Storage) RoundByID(_ context.Context, id string) (*types.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrRoundNotFound
	}

	cp := copyRound(&s.rounds[i])

	return &cp, nil
}

func copyRound(r *types.Round) types.Round {
	cp := *r
	cp.Outcomes = append([]types.OutcomeRecord(nil), r.Outcomes...)

	return cp
}
