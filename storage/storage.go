package storage

import (
	"context"
	"errors"

	"github.com/sig-0/fxcompare/storage/types"
)

const (
	DefaultLimit = int32(100)
	MaxLimit     = int32(500)
)

var ErrRoundNotFound = errors.New("round not found")

// Storage is an abstraction over the quote round audit trail
type Storage interface {
	// SaveRound saves the given finished round
	SaveRound(context.Context, *types.Round) error

	// Rounds lists the rounds matching the query, newest first
	Rounds(context.Context, *types.RoundQuery) (*types.Page[*types.Round], error)

	// RoundByID fetches a single round, or ErrRoundNotFound
	RoundByID(context.Context, string) (*types.Round, error)
}

// NormalizeLimit clamps the page size into (0, MaxLimit]
func NormalizeLimit(limit int32) int32 {
	if limit <= 0 {
		return DefaultLimit
	}

	if limit > MaxLimit {
		return MaxLimit
	}

	return limit
}
