package driving

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// EvalService measures retrieval quality against labelled queries.
type EvalService interface {
	// Run retrieves each query and reports mean recall@k and
	// precision@k for every cutoff in ks.
	Run(ctx context.Context, queries []domain.EvalQuery, ks []int) (domain.EvalReport, error)
}
