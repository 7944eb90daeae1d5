package scoring

import (
	"sort"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

// Rank orders funds by composite score descending, code ascending on ties,
// and assigns 1-based ranks. The input slice is left untouched, and the
// result does not depend on input order.
func Rank(scored []models.ScoredFund) []models.ScoredFund {
	ranked := make([]models.ScoredFund, len(scored))
	copy(ranked, scored)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Fund.Code < ranked[j].Fund.Code
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
