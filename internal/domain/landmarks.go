package domain

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Pair struct {
	Left  Point `json:"left"`
	Right Point `json:"right"`
}

// BodyLandmarks are anchor points on the depicted body in source-image pixel
// space. The JSON layout matches what clients of /api/overlay2d expect.
type BodyLandmarks struct {
	Head      Point `json:"head"`
	Neck      Point `json:"neck"`
	Shoulders Pair  `json:"shoulders"`
	Chest     Point `json:"chest"`
	Waist     Point `json:"waist"`
	Hips      Point `json:"hips"`
	Knees     Pair  `json:"knees"`
	Ankles    Pair  `json:"ankles"`
}

// Scale returns a copy with every x multiplied by sx and every y by sy.
func (l BodyLandmarks) Scale(sx, sy float64) BodyLandmarks {
	p := func(pt Point) Point { return Point{X: pt.X * sx, Y: pt.Y * sy} }
	pp := func(pr Pair) Pair { return Pair{Left: p(pr.Left), Right: p(pr.Right)} }
	return BodyLandmarks{
		Head:      p(l.Head),
		Neck:      p(l.Neck),
		Shoulders: pp(l.Shoulders),
		Chest:     p(l.Chest),
		Waist:     p(l.Waist),
		Hips:      p(l.Hips),
		Knees:     pp(l.Knees),
		Ankles:    pp(l.Ankles),
	}
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageInfo is what pose estimation needs to know about a photograph.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

type Placement struct {
	Position Point   `json:"position"`
	Scale    float64 `json:"scale"`
	ZIndex   int     `json:"zIndex"`
	Rotation float64 `json:"rotation"`
}

type PositionedItem struct {
	Item ClothingItem `json:"item"`
	Placement
}
