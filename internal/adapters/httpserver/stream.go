package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/tryon/internal/domain"
)

const streamWriteTimeout = 10 * time.Second

// apiTryOnStream upgrades to a WebSocket and pushes job snapshots as JSON
// text messages until the job completes or fails.
func (s *Server) apiTryOnStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, failed("Method not allowed"))
		return
	}
	id := r.URL.Query().Get("requestId")
	ch, cancel, err := s.tryon.Subscribe(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, failed(clientMessage(err)))
		return
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, failed("Request not found"))
		return
	default:
		log.Error().Err(err).Msg("subscribe try-on")
		writeJSON(w, http.StatusInternalServerError, failed("Error reading try-on status"))
		return
	}
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("request_id", id).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// CloseRead discards client frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "done")
				return
			}
			if err := writeSnapshot(ctx, conn, snap); err != nil {
				log.Debug().Err(err).Str("request_id", id).Msg("stream write")
				return
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap domain.TryOnResult) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
