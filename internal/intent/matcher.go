package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"auenbot/internal/domain"
	"auenbot/internal/intent/cache"
	"auenbot/internal/textnorm"
)

// DefaultMinScore is the similarity floor below which Match reports no hit.
const DefaultMinScore = 0.60

// Matcher answers nearest-neighbor lookups over the example embeddings.
// Immutable after construction; safe for concurrent readers.
type Matcher struct {
	embedder domain.Embedder
	rows     []Example
	vectors  [][]float64
	model    string
}

// NewMatcher wraps prebuilt rows and unit-norm vectors. rows and vectors must
// be index-aligned.
func NewMatcher(embedder domain.Embedder, rows []Example, vectors [][]float64, model string) (*Matcher, error) {
	if len(rows) != len(vectors) {
		return nil, fmt.Errorf("rows and vectors length mismatch: %d vs %d", len(rows), len(vectors))
	}
	return &Matcher{embedder: embedder, rows: rows, vectors: vectors, model: model}, nil
}

// Model returns the identifier of the embedding model that built the index.
func (m *Matcher) Model() string { return m.model }

// Len returns the number of indexed examples.
func (m *Matcher) Len() int { return len(m.rows) }

// Match embeds the utterance and returns the closest example at or above
// minScore, or nil when nothing qualifies. The returned reply has display
// markup stripped. Ties go to the first-encountered row.
func (m *Matcher) Match(ctx context.Context, text string, minScore float64) (*domain.IntentMatch, error) {
	if len(m.rows) == 0 {
		return nil, nil
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed utterance: %w", err)
	}
	normalizeInPlace(vec)

	bestIdx := 0
	bestScore := math.Inf(-1)
	for i, v := range m.vectors {
		if s := dot(v, vec); s > bestScore {
			bestIdx = i
			bestScore = s
		}
	}
	if bestScore < minScore {
		return nil, nil
	}
	best := m.rows[bestIdx]
	return &domain.IntentMatch{
		Intent:  best.Intent,
		Reply:   textnorm.StripMarkup(best.Reply),
		Score:   bestScore,
		Example: best.Example,
	}, nil
}

// Build embeds every example phrase and assembles a matcher. Embeddings are
// unit-normalized so similarity is a plain dot product.
func Build(ctx context.Context, embedder domain.Embedder, rows []Example) (*Matcher, error) {
	if len(rows) == 0 {
		return nil, errors.New("no intent examples to index")
	}
	texts := Texts(rows)
	if err := embedder.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed examples: %w", err)
	}
	if len(vectors) != len(rows) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(rows), len(vectors))
	}
	for _, v := range vectors {
		normalizeInPlace(v)
	}
	return NewMatcher(embedder, rows, vectors, embedder.Name())
}

// LoadOrBuild returns a matcher from the cache store when a valid artifact
// for this embedder exists, otherwise builds one and persists it. force
// skips the cache read. A cached artifact built under a different model
// identifier counts as a miss.
func LoadOrBuild(ctx context.Context, store *cache.Store, embedder domain.Embedder, rows []Example, force bool, log *slog.Logger) (*Matcher, error) {
	// Prepare unconditionally: corpus-dependent embedders need their
	// vocabulary even when the vectors come from the cache.
	if err := embedder.Prepare(Texts(rows)); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}

	if !force && store != nil {
		artifact, err := store.Load(ctx)
		switch {
		case errors.Is(err, cache.ErrNotFound):
			// fall through to build
		case err != nil:
			return nil, err
		case artifact.Model != embedder.Name():
			if log != nil {
				log.Warn("intent cache built under different model, rebuilding",
					slog.String("cached", artifact.Model),
					slog.String("configured", embedder.Name()),
				)
			}
		default:
			cached := make([]Example, len(artifact.Rows))
			vectors := make([][]float64, len(artifact.Rows))
			for i, r := range artifact.Rows {
				cached[i] = Example{Intent: r.Intent, Reply: r.Reply, Example: r.Example}
				vectors[i] = r.Vector
			}
			if log != nil {
				log.Info("intent index loaded from cache",
					slog.String("model", artifact.Model),
					slog.Int("examples", len(cached)),
				)
			}
			return NewMatcher(embedder, cached, vectors, artifact.Model)
		}
	}

	m, err := Build(ctx, embedder, rows)
	if err != nil {
		return nil, err
	}
	if store != nil {
		artifact := &cache.Artifact{Model: m.model, Dimension: embedder.Dimension(), Rows: make([]cache.Row, len(rows))}
		for i, r := range rows {
			artifact.Rows[i] = cache.Row{Intent: r.Intent, Reply: r.Reply, Example: r.Example, Vector: m.vectors[i]}
		}
		if err := store.Save(ctx, artifact); err != nil {
			return nil, fmt.Errorf("persist intent index: %w", err)
		}
		if log != nil {
			log.Info("intent index built",
				slog.String("model", m.model),
				slog.Int("examples", len(rows)),
			)
		}
	}
	return m, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalizeInPlace(vec []float64) {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
