// Package services implements the driving port interfaces.
// Services contain the retrieval-engine business logic and orchestrate
// calls to driven ports (adapters): embedding, the vector index, the
// metadata sidecar and the paper sources.
//
// Services are pure Go with no CGO or external dependencies.
package services
