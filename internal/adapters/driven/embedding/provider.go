package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingService = (*Provider)(nil)

// Provider is the lazy front for a configured embedding backend. The
// backend is constructed on first use, validated with one Ping, and
// cached for the life of the process. Batches larger than the
// configured batch size are split and sent sequentially, so batch
// boundaries never change the vectors produced.
type Provider struct {
	provider   string
	model      string
	modelID    string
	dimensions int
	batchSize  int

	mu     sync.Mutex
	svc    driven.EmbeddingService
	closed bool
}

// service returns the cached backend, constructing and validating it on
// first use.
func (p *Provider) service(ctx context.Context) (driven.EmbeddingService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("%w: embedding service is closed", domain.ErrEmbedding)
	}
	if p.svc != nil {
		return p.svc, nil
	}

	svc, err := createBackend(ctx, p.provider, p.model)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s backend unreachable: %w", domain.ErrModelUnavailable, p.provider, err)
	}

	p.svc = svc
	return svc, nil
}

// Embed generates a vector for one text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Embed(ctx, text)
}

// EmbedBatch generates vectors for texts, splitting the input into
// batches of at most the configured batch size.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))

		batch, err := svc.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d): %w", start, end, err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelID returns the provider-qualified model identifier.
func (p *Provider) ModelID() string {
	return p.modelID
}

// Ping constructs the backend if needed and validates connectivity.
func (p *Provider) Ping(ctx context.Context) error {
	svc, err := p.service(ctx)
	if err != nil {
		return err
	}
	return svc.Ping(ctx)
}

// Close tears down the cached backend. The provider is unusable
// afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.svc == nil {
		return nil
	}

	err := p.svc.Close()
	p.svc = nil
	return err
}
