package flat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// IndexFileName is the index artifact inside the index location.
const IndexFileName = "vectors.idx"

// formatVersion is bumped on incompatible layout changes.
const formatVersion = 1

// magic identifies the file as a paperdex vector index.
var magic = [4]byte{'P', 'D', 'X', 'I'}

// On-disk layout, all little-endian:
//
//	[4]byte  magic "PDXI"
//	uint16   format version
//	string   metric       (uint16 length + bytes)
//	string   model id     (uint16 length + bytes)
//	uint32   dimensions
//	uint32   vector count
//	rows     chunk id string + dimensions*float32
//	uint32   CRC-32 (IEEE) of everything above
//
// The file is written to a temp name and renamed into place, so readers
// only ever see a complete artifact.

// Staged is an index artifact fully written to a temporary file in its
// destination directory, waiting to be published.
type Staged struct {
	tmp       string
	dest      string
	published bool
}

// Commit renames the staged file into place, replacing any previous
// artifact at the destination.
func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.dest); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	st.published = true
	return nil
}

// Abort removes the staged file. After a successful Commit it does
// nothing.
func (st *Staged) Abort() {
	if !st.published {
		os.Remove(st.tmp)
	}
}

// Stage writes the index artifact to a temporary file inside the
// location directory. Any existing artifact stays untouched until the
// returned handle is committed.
func (idx *Index) Stage(location string) (driven.StagedArtifact, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("create index location: %w", err)
	}

	tmp, err := os.CreateTemp(location, IndexFileName+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp index file: %w", err)
	}
	staged := false
	defer func() {
		tmp.Close()
		if !staged {
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	sum := crc32.NewIEEE()
	w := io.MultiWriter(buf, sum)

	if err := idx.encode(w); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	// The checksum trails the payload and is not part of itself.
	if err := binary.Write(buf, binary.LittleEndian, sum.Sum32()); err != nil {
		return nil, fmt.Errorf("write checksum: %w", err)
	}

	if err := buf.Flush(); err != nil {
		return nil, fmt.Errorf("flush index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close index file: %w", err)
	}

	staged = true
	return &Staged{tmp: tmp.Name(), dest: filepath.Join(location, IndexFileName)}, nil
}

// Save stages the artifact and immediately publishes it.
func (idx *Index) Save(location string) error {
	st, err := idx.Stage(location)
	if err != nil {
		return err
	}
	return st.Commit()
}

// encode writes the header and vector rows. Callers hold the read lock.
func (idx *Index) encode(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(formatVersion)); err != nil {
		return err
	}
	if err := writeString(w, string(idx.metric)); err != nil {
		return err
	}
	if err := writeString(w, idx.modelID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.dims)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.ids))); err != nil {
		return err
	}

	for i, id := range idx.ids {
		if err := writeString(w, id); err != nil {
			return err
		}
		if _, err := w.Write(float32SliceToBytes(idx.vectors[i])); err != nil {
			return err
		}
	}
	return nil
}

// Header describes a stored artifact without its vectors.
type Header struct {
	Metric     domain.DistanceMetric
	ModelID    string
	Dimensions int
	Count      int
}

// ReadHeader decodes only the artifact header. The checksum covers the
// whole file and is not verified here; damage past the header surfaces
// on Load.
func ReadHeader(location string) (Header, error) {
	path := filepath.Join(location, IndexFileName)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Header{}, fmt.Errorf("%w: no index at %s", domain.ErrIndexUnavailable, path)
		}
		return Header{}, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	h, err := decodeHeader(bufio.NewReader(f))
	if err != nil {
		return Header{}, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	return h, nil
}

// Load reads the index artifact from the location directory. A missing
// artifact is ErrIndexUnavailable; any structural damage, including a
// checksum mismatch, is ErrCorruptIndex.
func Load(location string) (*Index, error) {
	path := filepath.Join(location, IndexFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no index at %s", domain.ErrIndexUnavailable, path)
		}
		return nil, fmt.Errorf("read index file: %w", err)
	}

	if len(data) < len(magic)+4 {
		return nil, fmt.Errorf("%w: index file too short (%d bytes)", domain.ErrCorruptIndex, len(data))
	}

	payload, trailer := data[:len(data)-4], data[len(data)-4:]
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(trailer) {
		return nil, fmt.Errorf("%w: checksum mismatch in %s", domain.ErrCorruptIndex, path)
	}

	idx, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	return idx, nil
}

// decode parses the checksummed payload back into an index.
func decode(payload []byte) (*Index, error) {
	r := &byteReader{data: payload}

	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		dims:     h.Dimensions,
		metric:   h.Metric,
		modelID:  h.ModelID,
		ids:      make([]string, 0, h.Count),
		vectors:  make([][]float32, 0, h.Count),
		position: make(map[string]int, h.Count),
	}

	for i := 0; i < h.Count; i++ {
		id, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if id == "" {
			return nil, fmt.Errorf("row %d: empty chunk id", i)
		}
		if _, dup := idx.position[id]; dup {
			return nil, fmt.Errorf("row %d: duplicate chunk id %s", i, id)
		}

		raw, err := r.bytes(h.Dimensions * 4)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		idx.position[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
		idx.vectors = append(idx.vectors, bytesToFloat32Slice(raw))
	}

	if r.off != len(payload) {
		return nil, fmt.Errorf("%d trailing bytes after %d rows", len(payload)-r.off, h.Count)
	}
	return idx, nil
}

// decodeHeader parses the fixed header fields up to, but not
// including, the vector rows.
func decodeHeader(r io.Reader) (Header, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return Header{}, fmt.Errorf("read magic: %w", err)
	}
	if [4]byte(head) != magic {
		return Header{}, fmt.Errorf("bad magic %q", head)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Header{}, fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return Header{}, fmt.Errorf("unsupported format version %d", version)
	}

	metricStr, err := readString(r)
	if err != nil {
		return Header{}, fmt.Errorf("read metric: %w", err)
	}
	metric := domain.DistanceMetric(metricStr)
	if !metric.IsValid() {
		return Header{}, fmt.Errorf("unknown metric %q", metricStr)
	}

	modelID, err := readString(r)
	if err != nil {
		return Header{}, fmt.Errorf("read model id: %w", err)
	}
	if modelID == "" {
		return Header{}, fmt.Errorf("empty model id")
	}

	var dims uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return Header{}, fmt.Errorf("read dimensions: %w", err)
	}
	if dims == 0 {
		return Header{}, fmt.Errorf("zero dimensions")
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Header{}, fmt.Errorf("read count: %w", err)
	}

	return Header{
		Metric:     metric,
		ModelID:    modelID,
		Dimensions: int(dims),
		Count:      int(count),
	}, nil
}

// readString reads a uint16 length prefix followed by the bytes.
func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// writeString writes a uint16 length prefix followed by the bytes.
func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes exceeds format limit", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// byteReader is a bounds-checked cursor over the payload. It also
// satisfies io.Reader so decodeHeader can share it.
type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("truncated at offset %d", r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) uint16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *byteReader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// float32SliceToBytes converts a []float32 to bytes for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts stored bytes back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
