// Package corpus reads and writes the newline-delimited JSON artifacts
// passed between pipeline stages: document records from ingestion,
// chunk records between chunker and indexer, and labelled queries for
// evaluation. One JSON object per line; blank lines are ignored.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// maxRecordBytes bounds a single JSONL record. Full-text documents can
// be large; chunk records never come close.
const maxRecordBytes = 64 << 20

func readAll[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var out []T
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return out, nil
}

func writeAll[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return nil
}

// ReadDocuments decodes document records from r.
func ReadDocuments(r io.Reader) ([]domain.Document, error) {
	return readAll[domain.Document](r)
}

// WriteDocuments encodes document records to w, one per line.
func WriteDocuments(w io.Writer, docs []domain.Document) error {
	return writeAll(w, docs)
}

// ReadChunks decodes chunk records from r.
func ReadChunks(r io.Reader) ([]domain.Chunk, error) {
	return readAll[domain.Chunk](r)
}

// WriteChunks encodes chunk records to w, one per line.
func WriteChunks(w io.Writer, chunks []domain.Chunk) error {
	return writeAll(w, chunks)
}

// ReadEvalQueries decodes labelled evaluation queries from r.
func ReadEvalQueries(r io.Reader) ([]domain.EvalQuery, error) {
	return readAll[domain.EvalQuery](r)
}

// WriteEvalQueries encodes labelled evaluation queries to w.
func WriteEvalQueries(w io.Writer, queries []domain.EvalQuery) error {
	return writeAll(w, queries)
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	items, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

func writeFile[T any](path string, items []T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeAll(f, items); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ReadDocumentsFile loads document records from a JSONL file.
func ReadDocumentsFile(path string) ([]domain.Document, error) {
	return readFile(path, ReadDocuments)
}

// WriteDocumentsFile writes document records to a JSONL file, creating
// parent directories as needed.
func WriteDocumentsFile(path string, docs []domain.Document) error {
	return writeFile(path, docs)
}

// AppendDocumentsFile appends document records to a JSONL file,
// creating it if missing. Used by extraction, which adds one paper at
// a time to a growing corpus.
func AppendDocumentsFile(path string, docs []domain.Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := writeAll(f, docs); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ReadChunksFile loads chunk records from a JSONL file.
func ReadChunksFile(path string) ([]domain.Chunk, error) {
	return readFile(path, ReadChunks)
}

// WriteChunksFile writes chunk records to a JSONL file, creating
// parent directories as needed.
func WriteChunksFile(path string, chunks []domain.Chunk) error {
	return writeFile(path, chunks)
}

// ReadEvalQueriesFile loads labelled queries from a JSONL file.
func ReadEvalQueriesFile(path string) ([]domain.EvalQuery, error) {
	return readFile(path, ReadEvalQueries)
}

// WriteEvalQueriesFile writes labelled queries to a JSONL file.
func WriteEvalQueriesFile(path string, queries []domain.EvalQuery) error {
	return writeFile(path, queries)
}
