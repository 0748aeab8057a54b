package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultModel    = "gemini-3-flash-preview"
	defaultEndpoint = "https://generativelanguage.googleapis.com"
)

// Gemini is a Generator backed by the Gemini REST generateContent endpoint.
// Prompt wording, model, and temperature follow the legacy application so
// parents see the same tone of message.
type Gemini struct {
	APIKey   string
	Model    string
	Endpoint string
	// HTTPClient is used for requests; nil falls back to a client with a
	// 15 second timeout.
	HTTPClient *http.Client
}

var _ Generator = (*Gemini)(nil)

// NewGeminiFromEnv builds a Gemini generator from environment variables.
//
//	SCOLARCORE_GEMINI_API_KEY: API key (required)
//	SCOLARCORE_GEMINI_MODEL: model name (default gemini-3-flash-preview)
func NewGeminiFromEnv() (*Gemini, error) {
	key := os.Getenv("SCOLARCORE_GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("SCOLARCORE_GEMINI_API_KEY required")
	}
	return &Gemini{APIKey: key, Model: os.Getenv("SCOLARCORE_GEMINI_MODEL")}, nil
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// AttendanceInsight asks the model for a short personalized encouragement in
// French. Transport and decode failures are returned to the caller, which is
// expected to substitute Fallback.
func (g *Gemini) AttendanceInsight(ctx context.Context, studentName string, presentCount, totalDays int) (string, error) {
	prompt := fmt.Sprintf(
		"Génère un court message d'encouragement personnalisé pour l'élève %s qui a été présent %d jours sur %d. Le ton doit être bienveillant et professionnel.",
		studentName, presentCount, totalDays,
	)
	reqBody, err := json.Marshal(generateContentRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{Temperature: 0.7},
	})
	if err != nil {
		return "", err
	}

	model := g.Model
	if model == "" {
		model = defaultModel
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", endpoint, model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, body)
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
