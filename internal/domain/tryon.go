package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// TryOnRequest is the body of POST /api/integration/try-on.
type TryOnRequest struct {
	UserImageURL               string         `json:"userImageUrl"`
	ClothingItems              []ClothingItem `json:"clothingItems"`
	CallbackURL                string         `json:"callbackUrl,omitempty"`
	IncludeBodyMeasurements    bool           `json:"includeBodyMeasurements,omitempty"`
	IncludeSizeRecommendations bool           `json:"includeSizeRecommendations,omitempty"`
}

// TryOnResult is both the callback payload and the status response.
type TryOnResult struct {
	RequestID           string                        `json:"requestId"`
	Status              JobStatus                     `json:"status"`
	Message             string                        `json:"message"`
	AvatarURL           string                        `json:"avatarUrl,omitempty"`
	ClothedAvatarURL    string                        `json:"clothedAvatarUrl,omitempty"`
	BodyMeasurements    *BodyMeasurements             `json:"bodyMeasurements,omitempty"`
	SizeRecommendations map[string]SizeRecommendation `json:"sizeRecommendations,omitempty"`
	Error               string                        `json:"error,omitempty"`
	Progress            *int                          `json:"progress,omitempty"`
}

// TryOnJob is the stored state of one asynchronous try-on request.
type TryOnJob struct {
	ID                  uuid.UUID                     `gorm:"type:uuid;primaryKey"`
	RequestID           string                        `gorm:"size:64;uniqueIndex"`
	Status              JobStatus                     `gorm:"type:varchar(20);index"`
	Message             string                        `gorm:"size:255"`
	Progress            int                           `gorm:"type:int;default:0"`
	UserImageURL        string                        `gorm:"type:text"`
	CallbackURL         string                        `gorm:"size:512"`
	AvatarURL           string                        `gorm:"size:512"`
	ClothedAvatarURL    string                        `gorm:"size:512"`
	ItemIDs             []string                      `gorm:"type:text;serializer:json"`
	BodyMeasurements    *BodyMeasurements             `gorm:"type:text;serializer:json"`
	SizeRecommendations map[string]SizeRecommendation `gorm:"type:text;serializer:json"`
	Error               string                        `gorm:"type:text"`
	Notified            bool                          `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Result renders the job the way the status endpoint reports it. Progress is
// only reported while the job is still running.
func (j *TryOnJob) Result() TryOnResult {
	res := TryOnResult{
		RequestID:           j.RequestID,
		Status:              j.Status,
		Message:             j.Message,
		AvatarURL:           j.AvatarURL,
		ClothedAvatarURL:    j.ClothedAvatarURL,
		BodyMeasurements:    j.BodyMeasurements,
		SizeRecommendations: j.SizeRecommendations,
		Error:               j.Error,
	}
	if j.Status == JobStatusProcessing {
		p := j.Progress
		res.Progress = &p
	}
	return res
}
