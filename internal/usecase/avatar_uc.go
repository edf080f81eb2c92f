package usecase

import (
	"context"
	"strings"

	"github.com/phenrril/tryon/internal/domain"
)

type AvatarUC struct {
	Avatars domain.AvatarGenerator
}

func (uc *AvatarUC) Generate(ctx context.Context, photo domain.Photo, gender, userID string) (*domain.Avatar, error) {
	if len(photo.Data) == 0 {
		return nil, domain.Invalid("No image file provided")
	}
	gender = strings.ToLower(strings.TrimSpace(gender))
	if gender != "female" {
		gender = "male"
	}
	return uc.Avatars.Generate(ctx, domain.AvatarRequest{Photo: photo, Gender: gender, UserID: userID})
}
