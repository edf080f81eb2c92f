package pose

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/phenrril/tryon/internal/domain"
)

func TestEstimate_KnownDimensions(t *testing.T) {
	l, err := Estimate(1000, 2000)
	require.NoError(t, err)

	assert.Equal(t, domain.Point{X: 500, Y: 240}, l.Head)
	assert.Equal(t, domain.Point{X: 500, Y: 600}, l.Chest)
	assert.Equal(t, domain.Point{X: 500, Y: 1100}, l.Hips)
	assert.Equal(t, domain.Point{X: 400, Y: 440}, l.Shoulders.Left)
	assert.Equal(t, domain.Point{X: 600, Y: 440}, l.Shoulders.Right)
	assert.Equal(t, domain.Point{X: 450, Y: 1500}, l.Knees.Left)
	assert.Equal(t, domain.Point{X: 550, Y: 1500}, l.Knees.Right)
	assert.Equal(t, domain.Point{X: 450, Y: 1900}, l.Ankles.Left)
	assert.Equal(t, domain.Point{X: 550, Y: 1900}, l.Ankles.Right)
}

func TestEstimate_RejectsNonPositive(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 10}, {10, -5}} {
		_, err := Estimate(dims[0], dims[1])
		assert.ErrorIs(t, err, domain.ErrInvalidDimensions, "dims %v", dims)
	}
}

func TestEstimate_RatiosHoldForAnySize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 20000).Draw(rt, "width")
		h := rapid.IntRange(1, 20000).Draw(rt, "height")

		l, err := Estimate(w, h)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		fw, fh := float64(w), float64(h)
		checks := []struct {
			name string
			got  domain.Point
			want domain.Point
		}{
			{"head", l.Head, domain.Point{X: fw * 0.50, Y: fh * 0.12}},
			{"neck", l.Neck, domain.Point{X: fw * 0.50, Y: fh * 0.18}},
			{"lshoulder", l.Shoulders.Left, domain.Point{X: fw * 0.40, Y: fh * 0.22}},
			{"rshoulder", l.Shoulders.Right, domain.Point{X: fw * 0.60, Y: fh * 0.22}},
			{"chest", l.Chest, domain.Point{X: fw * 0.50, Y: fh * 0.30}},
			{"waist", l.Waist, domain.Point{X: fw * 0.50, Y: fh * 0.45}},
			{"hips", l.Hips, domain.Point{X: fw * 0.50, Y: fh * 0.55}},
			{"lknee", l.Knees.Left, domain.Point{X: fw * 0.45, Y: fh * 0.75}},
			{"rknee", l.Knees.Right, domain.Point{X: fw * 0.55, Y: fh * 0.75}},
			{"lankle", l.Ankles.Left, domain.Point{X: fw * 0.45, Y: fh * 0.95}},
			{"rankle", l.Ankles.Right, domain.Point{X: fw * 0.55, Y: fh * 0.95}},
		}
		for _, c := range checks {
			if c.got != c.want {
				rt.Fatalf("%s: got %+v want %+v", c.name, c.got, c.want)
			}
		}

		again, _ := Estimate(w, h)
		if again != l {
			rt.Fatalf("estimate not deterministic")
		}
	})
}

func TestProportionalEstimator_ImplementsEstimator(t *testing.T) {
	var est Estimator = NewProportionalEstimator()
	l, err := est.Estimate(context.Background(), domain.ImageInfo{Width: 200, Height: 400})
	require.NoError(t, err)
	assert.Equal(t, 100.0, l.Chest.X)
	assert.Equal(t, 120.0, l.Chest.Y)
}

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 30, 60))))

	info, err := InspectBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 60, info.Height)
	assert.Equal(t, "png", info.Format)

	_, err = InspectBytes([]byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
