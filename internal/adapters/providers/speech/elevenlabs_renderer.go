package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/carerouter/backend/pkg/config"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "eleven_multilingual_v2"
	defaultTimeout = 12 * time.Second

	// upstream error bodies are truncated to this many bytes in error messages
	maxErrorBody = 512
)

// ElevenLabsRenderer implements providers.SpeechRenderer with the ElevenLabs
// text-to-speech API. Missing credentials are reported per call so the service
// can start and serve text-only recommendations without them.
type ElevenLabsRenderer struct {
	apiKey     string
	voiceID    string
	modelID    string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsRenderer creates a renderer from speech configuration.
func NewElevenLabsRenderer(cfg *config.SpeechConfig) *ElevenLabsRenderer {
	r := &ElevenLabsRenderer{
		modelID: defaultModelID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	if cfg == nil {
		return r
	}

	r.apiKey = strings.TrimSpace(cfg.APIKey)
	r.voiceID = strings.TrimSpace(cfg.VoiceID)
	if cfg.ModelID != "" {
		r.modelID = cfg.ModelID
	}
	if cfg.BaseURL != "" {
		r.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		r.httpClient.Timeout = cfg.Timeout
	}
	return r
}

// WithHTTPClient swaps the HTTP client (used for tests).
func (r *ElevenLabsRenderer) WithHTTPClient(client *http.Client) *ElevenLabsRenderer {
	r.httpClient = client
	return r
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize returns MP3 audio for text.
func (r *ElevenLabsRenderer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if r.apiKey == "" {
		return nil, apperrors.NewConfigurationError("ELEVEN_API_KEY is not set")
	}
	if r.voiceID == "" {
		return nil, apperrors.NewConfigurationError("ELEVEN_VOICE_ID is not set")
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, ModelID: r.modelID})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode speech request", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", r.baseURL, url.PathEscape(r.voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build speech request", err)
	}
	req.Header.Set("xi-api-key", r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("speech synthesis failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("speech synthesis returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(detail))),
		)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to read synthesized audio", err)
	}
	return audio, nil
}
