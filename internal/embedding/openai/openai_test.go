package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyEnv = "AUENBOT_TEST_API_KEY"

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	t.Setenv(testKeyEnv, "test-key")
	c, err := NewClient(Config{BaseURL: baseURL, APIKeyEnv: testKeyEnv, Model: "test-model"})
	require.NoError(t, err)
	c.maxRetries = 1
	return c
}

func embeddingsResponse(vectors [][]float64) []byte {
	type item struct {
		Embedding []float64 `json:"embedding"`
	}
	data := make([]item, len(vectors))
	for i, v := range vectors {
		data[i] = item{Embedding: v}
	}
	out, _ := json.Marshal(map[string]any{"data": data})
	return out
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	_, err := NewClient(Config{APIKeyEnv: testKeyEnv})
	assert.Error(t, err)
}

func TestEmbedBatch(t *testing.T) {
	var gotAuth string
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInput = req.Input
		_, _ = w.Write(embeddingsResponse([][]float64{{1, 0}, {0, 1}}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vecs, err := c.EmbedBatch(context.Background(), []string{"Hallo", "Tschüss"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"Hallo", "Tschüss"}, gotInput)
	assert.Equal(t, 2, c.Dimension())
}

func TestEmbedBatchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(embeddingsResponse([][]float64{{0.5, 0.5}}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vec, err := c.Embed(context.Background(), "Hallo")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, vec)
	assert.Equal(t, 2, calls)
}

func TestEmbedBatchClientErrorIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.EmbedBatch(context.Background(), []string{"Hallo"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbedBatchRejectsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(embeddingsResponse([][]float64{{1, 0}}))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.EmbedBatch(context.Background(), []string{"Hallo", "Tschüss"})
	assert.Error(t, err)
}
