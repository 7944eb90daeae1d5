package service

import (
	"context"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

// Advisor produces a narrative assessment of a fetched cohort using an
// external language-model provider. It consumes the same unscored fund
// collection the scoring engine sees and is free to disagree with it.
type Advisor interface {
	Assess(ctx context.Context, sector string, funds []models.Fund) (string, error)
}
