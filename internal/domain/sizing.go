package domain

// BodyMeasurements come from the size-estimation provider and are passed
// through untouched. Values are centimetres.
type BodyMeasurements struct {
	Height             float64 `json:"height"`
	Chest              float64 `json:"chest"`
	Waist              float64 `json:"waist"`
	Hips               float64 `json:"hips"`
	Shoulders          float64 `json:"shoulders"`
	Inseam             float64 `json:"inseam"`
	NeckCircumference  float64 `json:"neckCircumference,omitempty"`
	ArmLength          float64 `json:"armLength,omitempty"`
	ThighCircumference float64 `json:"thighCircumference,omitempty"`
	CalfCircumference  float64 `json:"calfCircumference,omitempty"`
	AnkleCircumference float64 `json:"ankleCircumference,omitempty"`
}

type BrandSize struct {
	UpperSize string `json:"upperSize"`
	LowerSize string `json:"lowerSize"`
}

type SizeRecommendation struct {
	UpperSize     string               `json:"upperSize"`
	LowerSize     string               `json:"lowerSize"`
	ShoeSize      string               `json:"shoeSize"`
	Fit           string               `json:"fit"` // tight, regular, loose
	Confidence    float64              `json:"confidence"`
	BrandSpecific map[string]BrandSize `json:"brandSpecific,omitempty"`
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

func (r SizeRecommendation) Level() ConfidenceLevel {
	switch {
	case r.Confidence >= 0.8:
		return ConfidenceHigh
	case r.Confidence >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
