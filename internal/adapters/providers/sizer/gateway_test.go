package sizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/tryon/internal/domain"
)

var m = domain.BodyMeasurements{Height: 175, Chest: 95, Waist: 82, Hips: 98, Shoulders: 45, Inseam: 82}

func server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/measurements":
			_, _, err := r.FormFile("image")
			require.NoError(t, err)
			_ = json.NewEncoder(w).Encode(map[string]any{"measurements": m})
		case "/v1/recommendations":
			var in struct {
				Measurements domain.BodyMeasurements `json:"measurements"`
				ProductID    string                  `json:"productId"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, m, in.Measurements)
			assert.Equal(t, "upper-1", in.ProductID)
			w.Write([]byte(`{"recommendation":{"upperSize":"M","lowerSize":"L","shoeSize":"","fit":"regular","confidence":0.85}}`))
		case "/v1/batch-recommendations":
			var in struct {
				ProductIDs []string `json:"productIds"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			out := map[string]any{}
			for _, id := range in.ProductIDs {
				out[id] = map[string]any{"upperSize": "S", "fit": "tight", "confidence": 0.4}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"recommendations": out})
		}
	}))
}

func TestGateway(t *testing.T) {
	srv := server(t)
	defer srv.Close()
	g := NewGateway("k", srv.URL)
	ctx := context.Background()

	got, err := g.EstimateMeasurements(ctx, domain.Photo{Data: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, m, *got)

	rec, err := g.Recommend(ctx, m, "upper-1")
	require.NoError(t, err)
	assert.Equal(t, "M", rec.UpperSize)
	assert.Equal(t, domain.ConfidenceHigh, rec.Level())

	batch, err := g.RecommendBatch(ctx, m, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, domain.ConfidenceLow, batch["b"].Level())
}

func TestGateway_MissingMeasurements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewGateway("k", srv.URL).EstimateMeasurements(context.Background(), domain.Photo{Data: []byte("x")})
	assert.True(t, domain.IsRemote(err))
}
