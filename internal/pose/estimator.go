// Package pose derives body landmarks from a photograph.
//
// The only estimator shipped is ProportionalEstimator, a placeholder that
// places every landmark at a fixed fraction of the image size. It performs no
// detection. Real pose models plug in behind the Estimator interface without
// affecting the placement engine.
package pose

import (
	"context"

	"github.com/phenrril/tryon/internal/domain"
)

type Estimator interface {
	Estimate(ctx context.Context, img domain.ImageInfo) (domain.BodyLandmarks, error)
}

type ratio struct{ x, y float64 }

// Fractions of image width/height for each landmark.
var (
	headRatio          = ratio{0.50, 0.12}
	neckRatio          = ratio{0.50, 0.18}
	leftShoulderRatio  = ratio{0.40, 0.22}
	rightShoulderRatio = ratio{0.60, 0.22}
	chestRatio         = ratio{0.50, 0.30}
	waistRatio         = ratio{0.50, 0.45}
	hipsRatio          = ratio{0.50, 0.55}
	leftKneeRatio      = ratio{0.45, 0.75}
	rightKneeRatio     = ratio{0.55, 0.75}
	leftAnkleRatio     = ratio{0.45, 0.95}
	rightAnkleRatio    = ratio{0.55, 0.95}
)

type ProportionalEstimator struct{}

func NewProportionalEstimator() *ProportionalEstimator { return &ProportionalEstimator{} }

func (ProportionalEstimator) Estimate(_ context.Context, img domain.ImageInfo) (domain.BodyLandmarks, error) {
	return Estimate(img.Width, img.Height)
}

// Estimate is pure: equal dimensions always give equal landmarks.
func Estimate(width, height int) (domain.BodyLandmarks, error) {
	if width <= 0 || height <= 0 {
		return domain.BodyLandmarks{}, domain.ErrInvalidDimensions
	}
	w, h := float64(width), float64(height)
	at := func(r ratio) domain.Point { return domain.Point{X: w * r.x, Y: h * r.y} }
	return domain.BodyLandmarks{
		Head:      at(headRatio),
		Neck:      at(neckRatio),
		Shoulders: domain.Pair{Left: at(leftShoulderRatio), Right: at(rightShoulderRatio)},
		Chest:     at(chestRatio),
		Waist:     at(waistRatio),
		Hips:      at(hipsRatio),
		Knees:     domain.Pair{Left: at(leftKneeRatio), Right: at(rightKneeRatio)},
		Ankles:    domain.Pair{Left: at(leftAnkleRatio), Right: at(rightAnkleRatio)},
	}, nil
}
