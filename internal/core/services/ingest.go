package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/quillstone-labs/paperdex-cli/internal/logger"
)

// Ensure IngestService implements the driving port.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService brings papers into the corpus, fetched from the
// upstream archive or extracted from local PDFs.
type IngestService struct {
	source    driven.PaperSource
	extractor driven.TextExtractor
}

// NewIngestService creates an ingest service.
func NewIngestService(source driven.PaperSource, extractor driven.TextExtractor) *IngestService {
	return &IngestService{
		source:    source,
		extractor: extractor,
	}
}

// Fetch returns documents matching the query, newest first.
func (s *IngestService) Fetch(ctx context.Context, q domain.PaperQuery) ([]domain.Document, error) {
	defer logger.Timed("fetch papers")()

	docs, err := s.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch papers: %w", err)
	}

	logger.Info("Fetched %d papers", len(docs))
	return docs, nil
}

// ExtractPDF reads the text layer of a local PDF and assembles a
// document record for the corpus.
func (s *IngestService) ExtractPDF(_ context.Context, path, id, title string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, fmt.Errorf("%w: document id is required", domain.ErrInvalidArgument)
	}

	text, pages, err := s.extractor.Extract(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract %s: %w", path, err)
	}

	logger.Info("Extracted %d pages from %s", pages, path)
	return domain.Document{
		ID:        id,
		Title:     title,
		SourceURL: path,
		Text:      text,
	}, nil
}
