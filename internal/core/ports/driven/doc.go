// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingService: text to vector (hash, openai, gemini, ollama)
//   - VectorIndex: nearest-neighbour search over embedded chunks (flat)
//   - MetadataStore: chunk/document sidecar for result hydration (sqlite)
//   - PaperSource: upstream paper metadata (arxiv)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
