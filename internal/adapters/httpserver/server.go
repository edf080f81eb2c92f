// Package httpserver exposes the try-on API over net/http.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/metrics"
	"github.com/phenrril/tryon/internal/usecase"
)

type Options struct {
	Catalog  *usecase.CatalogUC
	Avatars  *usecase.AvatarUC
	Overlay  *usecase.OverlayUC
	TryOn    *usecase.TryOnUC
	Sizing   *usecase.SizingUC
	Sessions *usecase.SessionUC
	Scene    *usecase.SceneUC
	Storage  domain.FileStorage
	Metrics  *metrics.Collector

	// AssetsDir is served under /models/ and /images/.
	AssetsDir      string
	SessionKey     string
	SessionTTL     time.Duration
	SecureCookies  bool
	MaxUploadBytes int64
	// RateLimitRPS is per client IP; zero disables limiting.
	RateLimitRPS float64
}

type Server struct {
	mux      *http.ServeMux
	catalog  *usecase.CatalogUC
	avatars  *usecase.AvatarUC
	overlay  *usecase.OverlayUC
	tryon    *usecase.TryOnUC
	sizing   *usecase.SizingUC
	sessions *usecase.SessionUC
	scene    *usecase.SceneUC
	storage  domain.FileStorage
	metrics  *metrics.Collector

	assetsDir     string
	sessionKey    []byte
	sessionTTL    time.Duration
	secureCookies bool
	maxUpload     int64
}

func New(o Options) http.Handler {
	s := &Server{
		mux:           http.NewServeMux(),
		catalog:       o.Catalog,
		avatars:       o.Avatars,
		overlay:       o.Overlay,
		tryon:         o.TryOn,
		sizing:        o.Sizing,
		sessions:      o.Sessions,
		scene:         o.Scene,
		storage:       o.Storage,
		metrics:       o.Metrics,
		assetsDir:     o.AssetsDir,
		sessionKey:    []byte(o.SessionKey),
		sessionTTL:    o.SessionTTL,
		secureCookies: o.SecureCookies,
		maxUpload:     o.MaxUploadBytes,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 8 << 20
	}
	s.routes()
	return Chain(s.mux,
		Recovery,
		RequestID,
		Logging,
		Metrics(o.Metrics),
		RateLimit(o.RateLimitRPS),
		SecurityHeaders,
	)
}

func (s *Server) routes() {
	if s.assetsDir != "" {
		static := http.FileServer(http.Dir(s.assetsDir))
		s.mux.Handle("/models/", static)
		s.mux.Handle("/images/", static)
	}
	s.mux.HandleFunc("/processed-images/", s.handleProcessedImage)

	s.mux.HandleFunc("/api/generateAvatar", s.apiGenerateAvatar)
	s.mux.HandleFunc("/api/overlay2d", s.apiOverlay2D)

	s.mux.HandleFunc("/api/integration/try-on", s.apiTryOn)
	s.mux.HandleFunc("/api/integration/status", s.apiTryOnStatus)
	s.mux.HandleFunc("/api/integration/stream", s.apiTryOnStream)

	s.mux.HandleFunc("/api/catalog", s.apiCatalog)
	s.mux.HandleFunc("/api/scene", s.apiScene)

	s.mux.HandleFunc("/api/session/photo", s.apiSessionPhoto)
	s.mux.HandleFunc("/api/session", s.apiSession)

	s.mux.HandleFunc("/api/measurements", s.apiMeasurements)
	s.mux.HandleFunc("/api/size-recommendations", s.apiSizeRecommendations)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var errTooLarge = errors.New("upload too large")

// readPhoto parses a multipart body and returns the "image" part. A missing
// part yields an empty Photo, not an error.
func (s *Server) readPhoto(w http.ResponseWriter, r *http.Request) (domain.Photo, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.Photo{}, errTooLarge
		}
		return domain.Photo{}, nil
	}
	f, fh, err := r.FormFile("image")
	if err != nil {
		return domain.Photo{}, nil
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload+1))
	if err != nil {
		return domain.Photo{}, err
	}
	if int64(len(data)) > s.maxUpload {
		return domain.Photo{}, errTooLarge
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return domain.Photo{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// clientMessage is the text of a validation error without the sentinel
// prefix.
func clientMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}

func badImage(err error) bool {
	return errors.Is(err, domain.ErrInvalidImage) || errors.Is(err, domain.ErrInvalidDimensions)
}
