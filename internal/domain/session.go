package domain

import "time"

// Session holds the user's current photograph for the lifetime of a browser
// session. Generation increases on every upload.
type Session struct {
	ID          string    `json:"id"`
	Generation  uint64    `json:"generation"`
	Photo       []byte    `json:"photo,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	AvatarID    string    `json:"avatarId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
