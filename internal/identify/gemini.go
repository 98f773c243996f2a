package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"sprout/internal/config"
	"sprout/internal/store"
)

// GeminiEngine identifies plants with the Gemini vision model in process.
type GeminiEngine struct {
	client      *genai.Client
	model       string
	temperature float32
	threshold   float64
}

// NewGeminiEngine connects to the Gemini API with the configured key.
func NewGeminiEngine(ctx context.Context, cfg *config.Config) (*GeminiEngine, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiEngine{
		client:      client,
		model:       cfg.Gemini.Model,
		temperature: float32(cfg.Gemini.Temperature),
		threshold:   cfg.Engine.ConfidenceThreshold,
	}, nil
}

func (e *GeminiEngine) Close() error {
	return e.client.Close()
}

// Threshold returns the confidence cutoff below which identifications fall
// back to user selection.
func (e *GeminiEngine) Threshold() float64 {
	return e.threshold
}

func (e *GeminiEngine) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.SetTemperature(e.temperature)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned from gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("empty content returned from gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", errors.New("unexpected response format from gemini")
}

type identifyPayload struct {
	Species        string             `json:"species"`
	ScientificName string             `json:"scientificName"`
	Confidence     float64            `json:"confidence"`
	Suggestions    []store.Suggestion `json:"suggestions"`
}

// Identify sends the photo to the vision model and parses the structured
// result.
func (e *GeminiEngine) Identify(ctx context.Context, photo []byte, contentType string) (*Identification, error) {
	if len(photo) == 0 {
		return nil, errors.New("photo is empty")
	}
	format := strings.TrimPrefix(contentType, "image/")
	raw, err := e.generate(ctx, genai.ImageData(format, photo), genai.Text(identifyPrompt))
	if err != nil {
		return nil, err
	}
	payload, err := decodeResponse[identifyPayload](raw)
	if err != nil {
		return nil, err
	}

	result := &Identification{
		Species:        payload.Species,
		ScientificName: canonicalScientificName(payload.ScientificName),
		Confidence:     payload.Confidence,
	}
	for _, suggestion := range payload.Suggestions {
		suggestion.ScientificName = canonicalScientificName(suggestion.ScientificName)
		result.Suggestions = append(result.Suggestions, suggestion)
	}
	if result.Species == "" && len(result.Suggestions) == 0 {
		return nil, errors.New("model returned neither a species nor suggestions")
	}
	return result, nil
}

// Research asks the model for care details for a confirmed species.
func (e *GeminiEngine) Research(ctx context.Context, species, scientificName string) (*store.CareDetails, error) {
	if species == "" {
		return nil, errors.New("species is required")
	}
	prompt := fmt.Sprintf(researchPromptFormat, species, scientificName)
	raw, err := e.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	care, err := decodeResponse[store.CareDetails](raw)
	if err != nil {
		return nil, err
	}
	if care.WateringIntervalDays <= 0 {
		return nil, errors.New("model returned no watering interval")
	}
	return care, nil
}

// Resume acknowledges a selection commit. The in-process engine does its
// research when the workflow manager polls the session, so the trigger only
// validates its inputs here.
func (e *GeminiEngine) Resume(_ context.Context, sessionID, species, _, _ string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if species == "" {
		return errors.New("species is required")
	}
	return nil
}

// canonicalScientificName normalizes a binomial name to the conventional
// "Genus species" casing.
func canonicalScientificName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	genus, rest, found := strings.Cut(lower, " ")
	title := cases.Title(language.English).String(genus)
	if !found {
		return title
	}
	return title + " " + rest
}
