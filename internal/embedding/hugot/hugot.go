package hugot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// DefaultModel is the sentence transformer used in production. It produces
// 384-dimensional embeddings.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Embedder runs a local sentence-transformer model through hugot's Go backend.
type Embedder struct {
	model     string
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	dimension int
}

// NewEmbedder downloads the model if needed and initializes the extraction
// pipeline. modelDir defaults to ./models.
func NewEmbedder(model, modelDir string) (*Embedder, error) {
	if model == "" {
		model = DefaultModel
	}
	modelPath, err := prepareModel(model, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "intent-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("create extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("create extraction pipeline: %w", err)
	}

	return &Embedder{model: model, session: session, pipeline: pipeline}, nil
}

// Name returns the model identifier.
func (e *Embedder) Name() string { return e.model }

// Prepare is a no-op; the model is fixed at construction.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the embedding width, known after the first call.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the embedding vector for one text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one embedding vector per input text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run extraction pipeline: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	vecs := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		v := make([]float64, len(emb))
		for j, f := range emb {
			v[j] = float64(f)
		}
		vecs[i] = v
	}
	if e.dimension == 0 && len(vecs) > 0 {
		e.dimension = len(vecs[0])
	}
	return vecs, nil
}

// Close destroys the hugot session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}

// prepareModel downloads the model into modelDir if it is not there yet and
// returns the local model path.
func prepareModel(model, modelDir string) (string, error) {
	if modelDir == "" {
		modelDir = "./models"
	}
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return "", fmt.Errorf("create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloadedPath, err := hugot.DownloadModel(model, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("download model: %w", err)
		}
		modelPath = downloadedPath
	}
	return modelPath, nil
}
