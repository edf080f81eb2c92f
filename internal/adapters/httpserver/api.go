package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/usecase"
)

type avatarResponse struct {
	Success   bool   `json:"success"`
	AvatarURL string `json:"avatarUrl"`
	AvatarID  string `json:"avatarId,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) apiGenerateAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, avatarResponse{Message: "Method not allowed"})
		return
	}
	photo, err := s.readPhoto(w, r)
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, avatarResponse{Message: "Image too large"})
		return
	}
	if err != nil || len(photo.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, avatarResponse{Message: "No image file provided"})
		return
	}

	sid := s.readSession(r)
	var gen uint64
	if sid != "" {
		if sess, err := s.sessions.Current(r.Context(), sid); err == nil {
			gen = sess.Generation
		}
	}

	av, err := s.avatars.Generate(r.Context(), photo, r.FormValue("gender"), r.Header.Get("X-User-Id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, avatarResponse{Message: clientMessage(err)})
			return
		}
		log.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("generate avatar")
		writeJSON(w, http.StatusInternalServerError, avatarResponse{Message: "Error generating avatar"})
		return
	}
	if gen != 0 {
		if err := s.sessions.AttachAvatar(r.Context(), sid, gen, *av); err != nil && !errors.Is(err, domain.ErrStaleGeneration) {
			log.Warn().Err(err).Str("session", sid).Msg("attach avatar")
		}
	}
	writeJSON(w, http.StatusOK, avatarResponse{Success: true, AvatarURL: av.URL, AvatarID: av.ID})
}

type overlayResponse struct {
	Success   bool                    `json:"success"`
	ResultURL string                  `json:"resultUrl"`
	Landmarks *domain.BodyLandmarks   `json:"landmarks,omitempty"`
	Items     []domain.PositionedItem `json:"items,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

func (s *Server) apiOverlay2D(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, overlayResponse{Message: "Method not allowed"})
		return
	}
	photo, err := s.readPhoto(w, r)
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, overlayResponse{Message: "Image too large"})
		return
	}
	if err != nil || len(photo.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, overlayResponse{Message: "No image file provided"})
		return
	}
	raw := strings.TrimSpace(r.FormValue("selectedItems"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, overlayResponse{Message: "No clothing items selected"})
		return
	}
	var items []domain.ClothingItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		writeJSON(w, http.StatusBadRequest, overlayResponse{Message: "Invalid selectedItems"})
		return
	}
	width, _ := strconv.ParseFloat(r.FormValue("displayWidth"), 64)
	height, _ := strconv.ParseFloat(r.FormValue("displayHeight"), 64)

	res, err := s.overlay.Overlay(r.Context(), usecase.OverlayRequest{
		Photo:   photo,
		Items:   items,
		Display: domain.Size{Width: width, Height: height},
		UserID:  r.Header.Get("X-User-Id"),
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, overlayResponse{Message: clientMessage(err)})
		return
	case badImage(err):
		writeJSON(w, http.StatusBadRequest, overlayResponse{Message: "Invalid image file"})
		return
	default:
		log.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("overlay")
		writeJSON(w, http.StatusInternalServerError, overlayResponse{Message: "Error processing image overlay"})
		return
	}
	writeJSON(w, http.StatusOK, overlayResponse{Success: true, ResultURL: res.ResultURL, Landmarks: &res.Landmarks, Items: res.Items})
}

func failed(msg string) domain.TryOnResult {
	return domain.TryOnResult{Status: domain.JobStatusFailed, Message: msg}
}

func (s *Server) apiTryOn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, failed("Method not allowed"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req domain.TryOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failed("Missing or invalid required parameters"))
		return
	}
	res, err := s.tryon.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, failed(clientMessage(err)))
			return
		}
		log.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("submit try-on")
		writeJSON(w, http.StatusInternalServerError, failed("Error processing try-on request"))
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) apiTryOnStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, failed("Method not allowed"))
		return
	}
	res, err := s.tryon.Status(r.Context(), r.URL.Query().Get("requestId"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, failed(clientMessage(err)))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, failed("Request not found"))
	default:
		log.Error().Err(err).Msg("try-on status")
		writeJSON(w, http.StatusInternalServerError, failed("Error reading try-on status"))
	}
}

func (s *Server) apiCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	items, err := s.catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": clientMessage(err)})
			return
		}
		log.Error().Err(err).Msg("catalog list")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error loading catalog"})
		return
	}
	if items == nil {
		items = []domain.ClothingItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) apiScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req usecase.SceneRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid scene request"})
		return
	}
	key := s.readSession(r)
	if key == "" {
		key = "ip:" + clientIP(r)
	}
	m, err := s.scene.Compose(r.Context(), key, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, m)
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": clientMessage(err)})
	case errors.Is(err, domain.ErrStaleGeneration):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "Superseded by a newer scene request"})
	default:
		log.Error().Err(err).Msg("compose scene")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error composing scene"})
	}
}

func (s *Server) apiSessionPhoto(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		sess, err := s.sessions.Current(r.Context(), s.readSession(r))
		if err != nil || len(sess.Photo) == 0 {
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				log.Error().Err(err).Msg("load session")
			}
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "No photo in session"})
			return
		}
		w.Header().Set("Content-Type", sess.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Photo-Generation", strconv.FormatUint(sess.Generation, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(sess.Photo)
		}
	case http.MethodPost:
		photo, err := s.readPhoto(w, r)
		if errors.Is(err, errTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "message": "Image too large"})
			return
		}
		if err != nil || len(photo.Data) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "No image file provided"})
			return
		}
		sess, err := s.sessions.Upload(r.Context(), s.readSession(r), photo)
		switch {
		case err == nil:
		case badImage(err):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid image file"})
			return
		default:
			log.Error().Err(err).Msg("store session photo")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error storing photo"})
			return
		}
		s.writeSession(w, sess.ID)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"generation": sess.Generation,
			"width":      sess.Width,
			"height":     sess.Height,
		})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sid := s.readSession(r)
	if err := s.sessions.Reset(r.Context(), sid); err != nil {
		log.Error().Err(err).Msg("reset session")
	}
	if s.scene != nil {
		s.scene.Forget(sid)
	}
	s.writeSession(w, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiMeasurements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	photo, err := s.readPhoto(w, r)
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "message": "Image too large"})
		return
	}
	if err != nil || len(photo.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "No image file provided"})
		return
	}
	m, err := s.sizing.Measure(r.Context(), photo)
	if err != nil {
		log.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("estimate measurements")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error estimating body measurements"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "measurements": m})
}

type sizeRequest struct {
	Measurements *domain.BodyMeasurements `json:"measurements"`
	ProductIDs   []string                 `json:"productIds"`
}

func (s *Server) apiSizeRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil || req.Measurements == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Missing or invalid required parameters"})
		return
	}
	recs, err := s.sizing.Recommend(r.Context(), *req.Measurements, req.ProductIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": clientMessage(err)})
			return
		}
		log.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("size recommendations")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error getting size recommendations"})
		return
	}
	levels := make(map[string]domain.ConfidenceLevel, len(recs))
	for id, rec := range recs {
		levels[id] = rec.Level()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "recommendations": recs, "confidence": levels})
}

func (s *Server) handleProcessedImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/processed-images/")
	if name == "" || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	rc, err := s.storage.Open(r.Context(), name)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("file", name).Msg("open processed image")
		}
		http.NotFound(w, r)
		return
	}
	defer rc.Close()
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "image/webp"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = io.Copy(w, rc)
	}
}
