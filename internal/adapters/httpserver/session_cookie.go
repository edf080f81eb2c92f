package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const sessionCookie = "tryon_sess"

type sessionClaims struct {
	ID string `json:"sid"`
}

func (s *Server) secretKey() []byte {
	if len(s.sessionKey) == 0 {
		return []byte("dev-insecure")
	}
	return s.sessionKey
}

func (s *Server) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secretKey())
	h.Write(payload)
	return h.Sum(nil)
}

// writeSession sets the signed session cookie; an empty id clears it.
func (s *Server) writeSession(w http.ResponseWriter, id string) {
	if id == "" {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.secureCookies, SameSite: http.SameSiteLaxMode})
		return
	}
	b, _ := json.Marshal(sessionClaims{ID: id})
	val := base64.RawURLEncoding.EncodeToString(s.sign(b)) + "." + base64.RawURLEncoding.EncodeToString(b)
	maxAge := int(s.sessionTTL / time.Second)
	if maxAge <= 0 {
		maxAge = 60 * 60 * 24
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: val, Path: "/", MaxAge: maxAge, HttpOnly: true, Secure: s.secureCookies, SameSite: http.SameSiteLaxMode})
}

// readSession returns the session id from a valid cookie, or "".
func (s *Server) readSession(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return ""
	}
	sig, err1 := base64.RawURLEncoding.DecodeString(parts[0])
	payload, err2 := base64.RawURLEncoding.DecodeString(parts[1])
	if err1 != nil || err2 != nil || !hmac.Equal(sig, s.sign(payload)) {
		return ""
	}
	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}
	return claims.ID
}
