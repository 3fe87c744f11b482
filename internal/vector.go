package internal

import "math"

type Embedding struct {
	Vector    []float32
	Dimension int
	Model     string
}

func NewEmbedding(vec []float32, model string) Embedding {
	return Embedding{
		Vector:    vec,
		Dimension: len(vec),
		Model:     model,
	}
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Vectors of different
// dimensions are incomparable (a stale record embedded by another model) and
// score 0, as do empty or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
