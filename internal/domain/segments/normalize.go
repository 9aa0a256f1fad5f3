package segments

import (
	"math"
	"sort"

	"github.com/mardev60/shortZ-tube/internal/types"
)

const (
	// MinSegmentDuration is the shortest clip the pipeline will cut, in seconds.
	MinSegmentDuration = 5.0
	// TargetTolerance is the fraction of the requested duration below which
	// a selected moment gets widened.
	TargetTolerance = 0.85
)

// EnsureMinDuration widens every moment shorter than MinSegmentDuration
// symmetrically. Start is clamped at zero and the end absorbs whatever the
// clamp cut off, so the result always lasts exactly MinSegmentDuration.
func EnsureMinDuration(ms []types.CandidateMoment) []types.CandidateMoment {
	out := make([]types.CandidateMoment, len(ms))
	for i, m := range ms {
		out[i] = m
		if m.Duration() < MinSegmentDuration {
			r := expand(m.TimeRange, MinSegmentDuration)
			r.End = math.Max(r.End, r.Start+MinSegmentDuration)
			out[i].TimeRange = r
		}
	}
	return out
}

// FitTargetDuration widens moments shorter than TargetTolerance*target up to
// target. Longer moments are left alone: the selector owns the upper bound.
// A start clamped at zero is not compensated, the result stays shorter.
func FitTargetDuration(ms []types.CandidateMoment, target float64) []types.CandidateMoment {
	out := make([]types.CandidateMoment, len(ms))
	for i, m := range ms {
		out[i] = m
		if target > 0 && m.Duration() < target*TargetTolerance {
			out[i].TimeRange = expand(m.TimeRange, target)
		}
	}
	return out
}

func expand(r types.TimeRange, want float64) types.TimeRange {
	add := (want - r.Duration()) / 2
	return types.TimeRange{
		Start: math.Max(0, r.Start-add),
		End:   r.End + add,
	}
}

// SortByScore returns the moments ordered by score, highest first. Equal
// scores keep their arrival order.
func SortByScore(ms []types.CandidateMoment) []types.CandidateMoment {
	out := make([]types.CandidateMoment, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ScoreFromRank maps rank 1 to 100, rank 2 to 90 and so on, floored at 0.
func ScoreFromRank(rank int) int {
	s := 100 - (rank-1)*10
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
