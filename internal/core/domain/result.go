package domain

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// IngestionResult aggregates the outcome of one pipeline run.
// Embeddings is either nil or holds exactly one vector per chunk, in chunk order.
type IngestionResult struct {
	RunID      string           `json:"run_id,omitempty"`
	Documents  []DocumentRecord `json:"documents"`
	Chunks     []TextChunk      `json:"chunks"`
	Embeddings [][]float32      `json:"embeddings"`
}

// HasEmbeddings reports whether every chunk has a vector.
func (r *IngestionResult) HasEmbeddings() bool {
	return r.Embeddings != nil && len(r.Embeddings) == len(r.Chunks)
}

// Dimensions returns the vector length, or zero without embeddings.
func (r *IngestionResult) Dimensions() int {
	if len(r.Embeddings) == 0 {
		return 0
	}
	return len(r.Embeddings[0])
}

// PersistedResult is the compact storage form of an IngestionResult.
// Embeddings holds little-endian float32 values, row-major, base64 encoded.
// HasEmbeddings separates an embedded run with zero chunks from a run
// that was never embedded.
type PersistedResult struct {
	RunID         string           `json:"run_id,omitempty"`
	Documents     []DocumentRecord `json:"documents"`
	Chunks        []TextChunk      `json:"chunks"`
	Embeddings    string           `json:"embeddings"`
	Dimensions    int              `json:"dimensions"`
	Rows          int              `json:"rows"`
	HasEmbeddings bool             `json:"has_embeddings"`
}

// Persisted converts the result into its compact storage form.
func (r *IngestionResult) Persisted() (*PersistedResult, error) {
	p := &PersistedResult{
		RunID:     r.RunID,
		Documents: r.Documents,
		Chunks:    r.Chunks,
	}
	if r.Embeddings == nil {
		return p, nil
	}

	dims := r.Dimensions()
	buf := make([]byte, 0, len(r.Embeddings)*dims*4)
	for i, row := range r.Embeddings {
		if len(row) != dims {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(row), dims, ErrDimensionMismatch)
		}
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}

	p.Embeddings = base64.StdEncoding.EncodeToString(buf)
	p.Dimensions = dims
	p.Rows = len(r.Embeddings)
	p.HasEmbeddings = true
	return p, nil
}

// Result restores the IngestionResult the persisted form was built from.
func (p *PersistedResult) Result() (*IngestionResult, error) {
	r := &IngestionResult{
		RunID:     p.RunID,
		Documents: p.Documents,
		Chunks:    p.Chunks,
	}
	if p.Embeddings == "" && p.Rows == 0 {
		if p.HasEmbeddings {
			r.Embeddings = [][]float32{}
		}
		return r, nil
	}

	raw, err := base64.StdEncoding.DecodeString(p.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(raw) != p.Rows*p.Dimensions*4 {
		return nil, fmt.Errorf("embedding payload is %d bytes, want %d: %w",
			len(raw), p.Rows*p.Dimensions*4, ErrDimensionMismatch)
	}

	r.Embeddings = make([][]float32, p.Rows)
	for i := range r.Embeddings {
		row := make([]float32, p.Dimensions)
		for j := range row {
			off := (i*p.Dimensions + j) * 4
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
		}
		r.Embeddings[i] = row
	}
	return r, nil
}
