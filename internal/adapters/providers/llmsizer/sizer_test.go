package llmsizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/tryon/internal/domain"
)

func chatServer(t *testing.T, answer func(req map[string]any) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req["model"],
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer(req)},
			}},
		})
	}))
}

func TestEstimateMeasurements(t *testing.T) {
	srv := chatServer(t, func(req map[string]any) string {
		msgs := req["messages"].([]any)
		parts := msgs[0].(map[string]any)["content"].([]any)
		img := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
		assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))
		return "```json\n{\"height\":172,\"chest\":90,\"waist\":75,\"hips\":95,\"shoulders\":42,\"inseam\":80}\n```"
	})
	defer srv.Close()

	s := New("sk-test", "", srv.URL+"/v1")
	m, err := s.EstimateMeasurements(context.Background(), domain.Photo{ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, 172.0, m.Height)
	assert.Equal(t, 42.0, m.Shoulders)
}

func TestRecommend(t *testing.T) {
	srv := chatServer(t, func(req map[string]any) string {
		assert.Equal(t, DefaultModel, req["model"])
		return `{"recommendations":{"upper-1":{"upperSize":"M","lowerSize":"","shoeSize":"","fit":"regular","confidence":0.7}}}`
	})
	defer srv.Close()

	s := New("sk-test", "", srv.URL+"/v1")
	r, err := s.Recommend(context.Background(), domain.BodyMeasurements{Height: 170}, "upper-1")
	require.NoError(t, err)
	assert.Equal(t, "M", r.UpperSize)
	assert.Equal(t, domain.ConfidenceMedium, r.Level())

	_, err = s.Recommend(context.Background(), domain.BodyMeasurements{Height: 170}, "other")
	assert.True(t, domain.IsRemote(err))
}

func TestGarbageAnswer(t *testing.T) {
	srv := chatServer(t, func(map[string]any) string { return "I think you are a medium." })
	defer srv.Close()
	_, err := New("sk-test", "", srv.URL+"/v1").RecommendBatch(context.Background(), domain.BodyMeasurements{}, []string{"a"})
	var re *domain.RemoteServiceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "openai", re.Provider)
}

func TestUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()
	_, err := New("sk-test", "", srv.URL+"/v1").EstimateMeasurements(context.Background(), domain.Photo{Data: []byte("x")})
	var re *domain.RemoteServiceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
}
