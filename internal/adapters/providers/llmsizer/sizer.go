// Package llmsizer estimates measurements and sizes with a chat completion
// model. It is used when no dedicated sizing provider is configured.
package llmsizer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/phenrril/tryon/internal/domain"
)

const (
	DefaultModel = "gpt-4o-mini"
	provider     = "openai"
)

type Sizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New builds a sizer. baseURL is only needed for compatible endpoints and
// tests; empty means the public API.
func New(apiKey, model, baseURL string) *Sizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Sizer{client: openai.NewClientWithConfig(cfg), model: model, timeout: 60 * time.Second}
}

const measurementsPrompt = `Estimate the body measurements of the person in the photo, in centimetres.
Return JSON only:
{"height":0,"chest":0,"waist":0,"hips":0,"shoulders":0,"inseam":0,"neckCircumference":0,"armLength":0,"thighCircumference":0,"calfCircumference":0,"ankleCircumference":0}`

func (s *Sizer) EstimateMeasurements(ctx context.Context, photo domain.Photo) (*domain.BodyMeasurements, error) {
	ct := photo.ContentType
	if ct == "" {
		ct = http.DetectContentType(photo.Data)
	}
	dataURL := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(photo.Data)

	var m domain.BodyMeasurements
	err := s.complete(ctx, "measurements", []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: measurementsPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailLow}},
			},
		},
	}, &m)
	if err != nil {
		return nil, err
	}
	if m.Height <= 0 {
		return nil, &domain.RemoteServiceError{Provider: provider, Op: "measurements", Cause: errors.New("no height in answer")}
	}
	return &m, nil
}

func (s *Sizer) Recommend(ctx context.Context, m domain.BodyMeasurements, productID string) (*domain.SizeRecommendation, error) {
	recs, err := s.RecommendBatch(ctx, m, []string{productID})
	if err != nil {
		return nil, err
	}
	r, ok := recs[productID]
	if !ok {
		return nil, &domain.RemoteServiceError{Provider: provider, Op: "recommendations", Cause: fmt.Errorf("no answer for %s", productID)}
	}
	return &r, nil
}

func (s *Sizer) RecommendBatch(ctx context.Context, m domain.BodyMeasurements, productIDs []string) (map[string]domain.SizeRecommendation, error) {
	mj, _ := json.Marshal(m)
	prompt := fmt.Sprintf(`Body measurements (cm): %s
Products: %s

Recommend a size for each product. Return JSON only:
{"recommendations":{"<productId>":{"upperSize":"M","lowerSize":"L","shoeSize":"","fit":"regular","confidence":0.0}}}
fit is one of tight, regular, loose. confidence is between 0 and 1.`, mj, strings.Join(productIDs, ", "))

	var out struct {
		Recommendations map[string]domain.SizeRecommendation `json:"recommendations"`
	}
	err := s.complete(ctx, "batch-recommendations", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You are a clothing fit expert. Always answer with valid JSON."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Recommendations == nil {
		out.Recommendations = map[string]domain.SizeRecommendation{}
	}
	return out.Recommendations, nil
}

func (s *Sizer) complete(ctx context.Context, op string, msgs []openai.ChatCompletionMessage, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          s.model,
		Messages:       msgs,
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
		}
		return &domain.RemoteServiceError{Provider: provider, Op: op, Status: status, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return &domain.RemoteServiceError{Provider: provider, Op: op, Cause: errors.New("empty response")}
	}
	content := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		log.Error().Err(err).Str("op", op).Str("content", content).Msg("unparseable model answer")
		return &domain.RemoteServiceError{Provider: provider, Op: op, Cause: fmt.Errorf("parse answer: %w", err)}
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
