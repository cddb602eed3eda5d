// Package vecmath holds the vector helpers shared by the local vector stores:
// BLOB encoding for SQLite and brute-force cosine ranking.
package vecmath

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

// Encode converts a []float32 to a little-endian byte slice for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte slice produced by Encode back into []float32.
func Decode(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineDistance returns 1 - cosine similarity, in [0, 2].
// A zero vector is treated as orthogonal to everything (distance 1).
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp rounding noise.
	sim = math.Max(-1, math.Min(1, sim))
	return 1 - sim, nil
}

// Rank sorts matches by ascending distance and truncates to k.
// Equal distances keep id order so results are deterministic.
func Rank(matches []domain.VectorMatch, k int) []domain.VectorMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Matches reports whether metadata passes the equality filter.
func Matches(md domain.RecordMetadata, filter domain.VectorFilter) bool {
	return filter.DocType == "" || md.DocType == filter.DocType
}
