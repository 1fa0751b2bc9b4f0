package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskListJSON = `[
	{"1": {"intent": "greet", "utter": "Hi! Ich bin KarlA 🙂<br>Wie kann ich helfen?", "text": ["Hallo", "Hi", "Guten Tag"]}},
	{"2": {"intent": "bye", "utter": "Tschüss!", "text": ["Tschüss", "Auf Wiedersehen"]}},
	{"3": {"intent": "broken", "utter": "", "text": ["kaputt"]}},
	{"4": {"intent": "empty", "utter": "Antwort", "text": []}}
]`

func TestParseTaskList(t *testing.T) {
	t.Run("Flattens groups into one row per example", func(t *testing.T) {
		rows, err := ParseTaskList([]byte(taskListJSON))
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, Example{Intent: "greet", Reply: "Hi! Ich bin KarlA 🙂<br>Wie kann ich helfen?", Example: "Hallo"}, rows[0])
		assert.Equal(t, "bye", rows[3].Intent)
	})

	t.Run("Skips groups missing intent, reply or examples", func(t *testing.T) {
		rows, err := ParseTaskList([]byte(taskListJSON))
		require.NoError(t, err)
		for _, r := range rows {
			assert.NotEqual(t, "broken", r.Intent)
			assert.NotEqual(t, "empty", r.Intent)
		}
	})

	t.Run("Rejects malformed JSON", func(t *testing.T) {
		_, err := ParseTaskList([]byte(`{"nope": true}`))
		assert.Error(t, err)
	})
}

// stubEmbedder returns fixed vectors per text; unknown texts get a vector
// orthogonal to all configured ones.
type stubEmbedder struct {
	vectors map[string][]float64
	dim     int
}

func (s *stubEmbedder) Name() string                { return "stub-model" }
func (s *stubEmbedder) Prepare(corpus []string) error { return nil }
func (s *stubEmbedder) Dimension() int              { return s.dim }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := s.vectors[text]; ok {
		out := make([]float64, s.dim)
		copy(out, v)
		return out, nil
	}
	out := make([]float64, s.dim)
	out[s.dim-1] = 1
	return out, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vecs := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func newStub() *stubEmbedder {
	return &stubEmbedder{
		dim: 4,
		vectors: map[string][]float64{
			"Hallo":          {1, 0, 0, 0},
			"Hi":             {0.9, 0.1, 0, 0},
			"Guten Tag":      {0.8, 0.2, 0, 0},
			"Tschüss":        {0, 1, 0, 0},
			"Auf Wiedersehen": {0.1, 0.9, 0, 0},
			"Servus":         {0.95, 0.05, 0, 0},
		},
	}
}

func buildTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	rows, err := ParseTaskList([]byte(taskListJSON))
	require.NoError(t, err)
	m, err := Build(context.Background(), newStub(), rows)
	require.NoError(t, err)
	return m
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Finds nearest example with markup-stripped reply", func(t *testing.T) {
		m := buildTestMatcher(t)
		hit, err := m.Match(ctx, "Servus", 0.6)
		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, "greet", hit.Intent)
		assert.Equal(t, "Hi! Ich bin KarlA 🙂\nWie kann ich helfen?", hit.Reply)
		assert.Equal(t, "Hallo", hit.Example)
		assert.Greater(t, hit.Score, 0.9)
	})

	t.Run("Below the floor yields no hit", func(t *testing.T) {
		m := buildTestMatcher(t)
		hit, err := m.Match(ctx, "Wie groß ist der Biber", 0.6)
		require.NoError(t, err)
		assert.Nil(t, hit)
	})

	t.Run("Deterministic first-index tie break", func(t *testing.T) {
		m := buildTestMatcher(t)
		// "Hallo" scores 1.0 against its own example and less elsewhere.
		hit, err := m.Match(ctx, "Hallo", 0.6)
		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, "Hallo", hit.Example)
	})

	t.Run("Build rejects empty example set", func(t *testing.T) {
		_, err := Build(ctx, newStub(), nil)
		assert.Error(t, err)
	})

	t.Run("Vectors are unit-normalized during build", func(t *testing.T) {
		m := buildTestMatcher(t)
		for _, v := range m.vectors {
			norm := 0.0
			for _, x := range v {
				norm += x * x
			}
			assert.InDelta(t, 1.0, norm, 1e-9)
		}
	})
}
