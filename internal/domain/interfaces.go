package domain

import "context"

// Entry is a single knowledge-base record describing one species.
// Attributes holds every field of the source record keyed by canonical label;
// Keys preserves the field order of the source data.
type Entry struct {
	Name       string
	Typ        string
	Attributes map[string]string
	Keys       []string
}

// Attribute returns the value for a label and whether it is present and non-empty.
func (e *Entry) Attribute(label string) (string, bool) {
	v, ok := e.Attributes[label]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IntentMatch is the best-scoring conversational intent for an utterance.
type IntentMatch struct {
	Intent  string
	Reply   string
	Score   float64
	Example string
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// IntentMatcher finds the closest conversational intent example for an
// utterance, or nil when nothing scores at or above minScore.
type IntentMatcher interface {
	Match(ctx context.Context, text string, minScore float64) (*IntentMatch, error)
}

// Responder defines the operation exposed by the application core: one user
// message in, one formatted reply out.
type Responder interface {
	Answer(ctx context.Context, text string) (string, error)
}
