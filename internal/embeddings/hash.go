package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashProvider derives a stable pseudo-vector from a strong content
// hash. Resolves the Open Question in spec §9 about the source's
// "Anthropic embedding" provider: serve.go places it in the embedding
// chain only when neither an OpenAI nor a Gemini embedding key is
// configured, so it is never mixed into a chain with a real provider
// (see DESIGN.md).
type HashProvider struct {
	dimension int
}

func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashProvider{dimension: dimension}
}

func (p *HashProvider) Name() string          { return "deterministic-hash" }
func (p *HashProvider) Model() string         { return "hash-fallback" }
func (p *HashProvider) Dimension() int        { return p.dimension }
func (p *HashProvider) EstimateCost([]string) float64 { return 0 }
func (p *HashProvider) Healthcheck(context.Context) bool { return true }

// Generate expands a SHA-256 digest of text into p.dimension floats in
// [-1, 1] by re-hashing with an incrementing counter once the digest's
// 32 bytes are exhausted.
func (p *HashProvider) Generate(_ context.Context, text string) ([]float64, error) {
	out := make([]float64, p.dimension)
	seed := sha256.Sum256([]byte(text))

	buf := seed[:]
	counter := uint32(0)
	for i := 0; i < p.dimension; i++ {
		if len(buf) < 4 {
			counter++
			var counterBytes [4]byte
			binary.BigEndian.PutUint32(counterBytes[:], counter)
			next := sha256.Sum256(append(seed[:], counterBytes[:]...))
			buf = next[:]
		}
		v := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		out[i] = (float64(v)/float64(^uint32(0)))*2 - 1
	}
	return out, nil
}

func (p *HashProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := p.Generate(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
