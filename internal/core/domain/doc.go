// Package domain defines the core business entities for paperdex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Document: one paper as produced by ingestion
//   - Chunk: a retrievable unit of a document's text
//   - EmbeddedChunk: a chunk with its vector representation
//   - SearchResult: one ranked retrieval hit
//   - Config: the validated configuration surface
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse. Its only external dependency is
// google/uuid, used to derive deterministic chunk identifiers.
package domain
