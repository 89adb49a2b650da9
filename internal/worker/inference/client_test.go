package inference

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInfer_ValidResponse(t *testing.T) {
	var gotModel, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotModel = r.Header.Get("X-Model")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model_used": "xgboost",
			"prediction": "FAKE",
			"probability_fake": 0.91,
			"probability_real": 0.09,
			"confidence_score": 0.91
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL, Model: "xgboost"}, discardLogger())

	result, raw, err := client.Infer(context.Background(), []byte("audio-bytes"), "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, "xgboost", gotModel)
	assert.Equal(t, "audio/wav", gotContentType)
	assert.Equal(t, "FAKE", result.Prediction)
	assert.InDelta(t, 0.91, result.ConfidenceScore, 1e-9)
	assert.Contains(t, string(raw), `"model_used"`)
}

func TestInfer_RejectsPayloadOffSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing required field", `{"model_used": "svm", "prediction": "REAL"}`},
		{"bad prediction enum", `{"model_used": "svm", "prediction": "MAYBE", "probability_fake": 0.5, "probability_real": 0.5, "confidence_score": 0.5}`},
		{"probability out of range", `{"model_used": "svm", "prediction": "REAL", "probability_fake": 1.5, "probability_real": 0.5, "confidence_score": 0.5}`},
		{"unexpected extra field", `{"model_used": "svm", "prediction": "REAL", "probability_fake": 0.5, "probability_real": 0.5, "confidence_score": 0.5, "debug": true}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{URL: srv.URL}, discardLogger())

			_, _, err := client.Infer(context.Background(), []byte("x"), "audio/wav")
			assert.Error(t, err)
		})
	}
}

func TestInfer_Non2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL}, discardLogger())

	_, _, err := client.Infer(context.Background(), []byte("x"), "audio/wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestInfer_ServiceUnreachable(t *testing.T) {
	client := NewClient(Config{URL: "http://127.0.0.1:1/infer"}, discardLogger())

	_, _, err := client.Infer(context.Background(), []byte("x"), "audio/wav")
	assert.Error(t, err)
}

func TestInit_Idempotent(t *testing.T) {
	client := NewClient(Config{URL: "http://localhost:9090"}, discardLogger())

	require.NoError(t, client.Init())
	require.NoError(t, client.Init())
}
