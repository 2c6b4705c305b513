package provider

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/embeddings"
)

type SolanaMatch struct {
	Address     string
	Description string
	Score       float64
}

// SolanaDirectory resolves a free-form address or exchange name to the
// closest known Solana address. Entries are embedded on first use.
type SolanaDirectory struct {
	entries  []config.SolanaAddress
	embedder embeddings.Embedder

	mu      sync.Mutex
	vectors [][]float32
}

// NewSolanaDirectory builds a directory. A nil embedder limits matching to
// exact and prefix matches.
func NewSolanaDirectory(entries []config.SolanaAddress, embedder embeddings.Embedder) *SolanaDirectory {
	return &SolanaDirectory{entries: entries, embedder: embedder}
}

func (d *SolanaDirectory) Nearest(ctx context.Context, query string) (SolanaMatch, error) {
	if len(d.entries) == 0 {
		return SolanaMatch{}, errors.Wrap(ErrNotFound, "solana directory is empty")
	}
	query = strings.TrimSpace(query)
	for _, e := range d.entries {
		if e.Address == query {
			return SolanaMatch{Address: e.Address, Description: e.Description, Score: 1}, nil
		}
	}

	if d.embedder == nil {
		return d.prefixMatch(query)
	}

	vectors, err := d.index(ctx)
	if err != nil {
		return SolanaMatch{}, err
	}
	qv, err := d.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return SolanaMatch{}, errors.Wrap(err, "failed to embed query")
	}

	best, bestScore := -1, math.Inf(-1)
	for i, v := range vectors {
		if s := cosine(qv, v); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return SolanaMatch{}, errors.Wrapf(ErrNotFound, "no address close to %q", query)
	}
	e := d.entries[best]
	return SolanaMatch{Address: e.Address, Description: e.Description, Score: bestScore}, nil
}

func (d *SolanaDirectory) index(ctx context.Context) ([][]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vectors != nil {
		return d.vectors, nil
	}

	texts := make([]string, len(d.entries))
	for i, e := range d.entries {
		texts[i] = e.Address + " " + e.Description
	}
	vectors, err := d.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed solana directory")
	}
	if len(vectors) != len(texts) {
		return nil, errors.Errorf("embedder returned %d vectors for %d entries", len(vectors), len(texts))
	}
	d.vectors = vectors
	return vectors, nil
}

// prefixMatch picks the entry sharing the longest address prefix with the
// query, or the first whose description mentions it
func (d *SolanaDirectory) prefixMatch(query string) (SolanaMatch, error) {
	lower := strings.ToLower(query)
	best, bestLen := -1, 0
	for i, e := range d.entries {
		n := commonPrefix(e.Address, query)
		if n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 && lower != "" {
		for i, e := range d.entries {
			if strings.Contains(strings.ToLower(e.Description), lower) {
				best = i
				break
			}
		}
	}
	if best < 0 {
		return SolanaMatch{}, errors.Wrapf(ErrNotFound, "no address matches %q", query)
	}
	e := d.entries[best]
	score := 0.0
	if len(query) > 0 {
		score = float64(bestLen) / float64(len(query))
	}
	return SolanaMatch{Address: e.Address, Description: e.Description, Score: score}, nil
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
