// Package chunker splits document text into overlapping fixed-size
// windows with stable, reproducible boundaries.
package chunker

import (
	"fmt"
	"unicode"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// Chunker splits documents into chunks of windowSize units stepping
// by windowSize - overlap. Identical input and parameters always
// produce identical boundaries and chunk ids, which makes re-indexing
// idempotent.
type Chunker struct {
	windowSize int
	overlap    int
	unit       domain.ChunkUnit
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithWindowSize sets the chunk window in chunk units.
func WithWindowSize(size int) Option {
	return func(c *Chunker) {
		c.windowSize = size
	}
}

// WithOverlap sets how many units consecutive chunks share.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithUnit sets the unit windows are counted in.
func WithUnit(unit domain.ChunkUnit) Option {
	return func(c *Chunker) {
		c.unit = unit
	}
}

// New creates a Chunker, validating the parameters up front so Split
// can never fail.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		windowSize: domain.DefaultWindowSize,
		overlap:    domain.DefaultOverlap,
		unit:       domain.DefaultChunkUnit,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", domain.ErrInvalidConfig, c.windowSize)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", domain.ErrInvalidConfig, c.overlap)
	}
	if c.overlap >= c.windowSize {
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than window size (%d)", domain.ErrInvalidConfig, c.overlap, c.windowSize)
	}
	if !c.unit.IsValid() {
		return nil, fmt.Errorf("%w: unknown chunk unit %q", domain.ErrInvalidConfig, c.unit)
	}
	return c, nil
}

// FromConfig creates a Chunker from the validated configuration.
func FromConfig(cfg domain.Config) (*Chunker, error) {
	return New(WithWindowSize(cfg.WindowSize), WithOverlap(cfg.Overlap), WithUnit(cfg.ChunkUnit))
}

// Split chunks one document. Empty documents produce zero chunks; a
// document shorter than the window produces exactly one chunk spanning
// the whole text. Offsets are rune positions in the source text.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	switch c.unit {
	case domain.UnitWords:
		return c.splitWords(doc)
	default:
		return c.splitChars(doc)
	}
}

func (c *Chunker) splitChars(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.windowSize - c.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	for cursor := 0; ; cursor += step {
		end := cursor + c.windowSize
		if end > n {
			end = n
		}

		chunks = append(chunks, c.newChunk(doc.ID, len(chunks), cursor, end, string(runes[cursor:end])))

		if end == n {
			break
		}
	}
	return chunks
}

// span is one word's position: rune offsets for provenance, byte
// offsets for slicing the original string.
type span struct {
	runeStart, runeEnd int
	byteStart, byteEnd int
}

func (c *Chunker) splitWords(doc domain.Document) []domain.Chunk {
	words := scanWords(doc.Text)
	n := len(words)
	if n == 0 {
		return nil
	}

	step := c.windowSize - c.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	for cursor := 0; ; cursor += step {
		end := cursor + c.windowSize
		if end > n {
			end = n
		}

		first, last := words[cursor], words[end-1]
		text := doc.Text[first.byteStart:last.byteEnd]
		chunks = append(chunks, c.newChunk(doc.ID, len(chunks), first.runeStart, last.runeEnd, text))

		if end == n {
			break
		}
	}
	return chunks
}

func (c *Chunker) newChunk(docID string, seq, start, end int, text string) domain.Chunk {
	return domain.Chunk{
		ID:            domain.NewChunkID(docID, seq),
		DocumentID:    docID,
		SequenceIndex: seq,
		StartOffset:   start,
		EndOffset:     end,
		Text:          text,
	}
}

// scanWords finds maximal runs of non-space runes with their rune and
// byte positions.
func scanWords(text string) []span {
	var words []span
	inWord := false
	var current span

	runeIdx := 0
	for byteIdx, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				current.runeEnd = runeIdx
				current.byteEnd = byteIdx
				words = append(words, current)
				inWord = false
			}
		} else if !inWord {
			current = span{runeStart: runeIdx, byteStart: byteIdx}
			inWord = true
		}
		runeIdx++
	}
	if inWord {
		current.runeEnd = runeIdx
		current.byteEnd = len(text)
		words = append(words, current)
	}
	return words
}
