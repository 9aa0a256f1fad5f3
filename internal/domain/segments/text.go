package segments

import (
	"strings"

	"github.com/samber/lo"

	"github.com/mardev60/shortZ-tube/internal/types"
)

// SourceText joins the text of every transcript segment overlapping r, in
// transcript order. Touching boundaries count as overlap.
func SourceText(tr types.Transcript, r types.TimeRange) string {
	hits := lo.Filter(tr.Segments, func(s types.TranscriptSegment, _ int) bool {
		return s.Start <= r.End && s.End >= r.Start
	})
	return strings.Join(lo.Map(hits, func(s types.TranscriptSegment, _ int) string {
		return s.Text
	}), " ")
}
