package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/domain/segments"
	"github.com/mardev60/shortZ-tube/internal/ports"
	"github.com/mardev60/shortZ-tube/internal/types"
)

// Selector turns the oracle's ranking into candidate moments. The ranking
// is accepted whole or not at all.
type Selector struct {
	oracle ports.MomentOracle
	log    zerolog.Logger
}

func NewSelector(oracle ports.MomentOracle, log zerolog.Logger) *Selector {
	return &Selector{oracle: oracle, log: log}
}

func (s *Selector) Select(ctx context.Context, tr types.Transcript, targetSec float64, count int) ([]types.CandidateMoment, error) {
	if count <= 0 {
		return nil, &types.OracleError{Err: fmt.Errorf("count must be > 0, got %d", count)}
	}
	if targetSec <= 0 {
		return nil, &types.OracleError{Err: fmt.Errorf("target duration must be > 0, got %g", targetSec)}
	}

	ranked, err := s.oracle.Rank(ctx, tr, targetSec, count)
	if err != nil {
		var oe *types.OracleError
		if errors.As(err, &oe) {
			return nil, err
		}
		return nil, &types.OracleError{Err: err}
	}
	if err := validateRanking(ranked, count); err != nil {
		return nil, &types.OracleError{Err: err}
	}

	out := make([]types.CandidateMoment, len(ranked))
	for i, rm := range ranked {
		r := types.TimeRange{Start: rm.Start, End: rm.End}
		out[i] = types.CandidateMoment{
			TimeRange:     r,
			Score:         segments.ScoreFromRank(rm.Rank),
			Justification: strings.TrimSpace(rm.Reason),
			SourceText:    segments.SourceText(tr, r),
		}
	}
	s.log.Debug().Int("count", len(out)).Float64("target", targetSec).Msg("moments selected")
	return segments.FitTargetDuration(out, targetSec), nil
}

func validateRanking(ranked []types.RankedMoment, count int) error {
	if len(ranked) != count {
		return fmt.Errorf("expected %d moments, got %d", count, len(ranked))
	}
	for i, rm := range ranked {
		switch {
		case rm.Rank < 1:
			return fmt.Errorf("moment %d: rank must be >= 1, got %d", i, rm.Rank)
		case rm.Start < 0:
			return fmt.Errorf("moment %d: negative start %g", i, rm.Start)
		case rm.End <= rm.Start:
			return fmt.Errorf("moment %d: end %g is not after start %g", i, rm.End, rm.Start)
		case strings.TrimSpace(rm.Reason) == "":
			return fmt.Errorf("moment %d: empty reason", i)
		}
	}
	return nil
}
