// Package assistant answers free-text questions about a subject's latest
// reading through the Gemini generative language REST API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"vitalmine-server/internal/risk"
)

// DefaultBaseURL is the public Gemini endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Apology is returned to users whenever the assistant cannot answer.
const Apology = "I am having trouble connecting. Please try again in a moment."

// PreferredModels is tried in order before falling back to the first model
// that supports generateContent.
var PreferredModels = []string{
	"models/gemini-1.5-flash",
	"models/gemini-1.5-flash-001",
	"models/gemini-1.5-pro",
	"models/gemini-pro",
	"models/gemini-1.0-pro",
}

// ErrAssistantUnavailable is matched by every AssistantUnavailableError.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// AssistantUnavailableError reports a configuration or transport failure.
type AssistantUnavailableError struct {
	Reason string
	Err    error
}

func (e *AssistantUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant unavailable: %s: %v", e.Reason, e.Err)
	}
	return "assistant unavailable: " + e.Reason
}

func (e *AssistantUnavailableError) Unwrap() error { return e.Err }

func (e *AssistantUnavailableError) Is(target error) bool {
	return target == ErrAssistantUnavailable
}

// Context is what the assistant is told about the subject.
type Context struct {
	Name        string
	Temperature float64
	HeartRate   int
	RiskLabel   risk.Label
}

// Prompt builds the instruction sent to the model.
func Prompt(question string, pc Context) string {
	var b strings.Builder
	b.WriteString("You are VitalBot, a compassionate medical assistant.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Patient: %s\n", pc.Name)
	fmt.Fprintf(&b, "- Temp: %v C\n", pc.Temperature)
	fmt.Fprintf(&b, "- HR: %d bpm\n", pc.HeartRate)
	fmt.Fprintf(&b, "- Status: %s\n\n", pc.RiskLabel)
	fmt.Fprintf(&b, "Question: %q\n\n", question)
	b.WriteString("Answer nicely in max 2 sentences. If Status is High, warn them urgently.")
	return b.String()
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to Gemini. The chosen model is discovered on first use and
// remembered.
type Client struct {
	http   *resty.Client
	apiKey string
	log    *zap.Logger

	mu    sync.Mutex
	model string
}

// NewClient creates a Client.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, apiKey: cfg.APIKey, log: log}
}

type modelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Ask sends the question with the subject context and returns the model's
// answer.
func (c *Client) Ask(ctx context.Context, question string, pc Context) (string, error) {
	if c.apiKey == "" {
		return "", &AssistantUnavailableError{Reason: "no API key configured"}
	}
	model, err := c.resolveModel(ctx)
	if err != nil {
		return "", err
	}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: Prompt(question, pc)}}}}}).
		SetResult(&out).
		Post("/v1beta/" + model + ":generateContent")
	if err != nil {
		return "", &AssistantUnavailableError{Reason: "generate request failed", Err: err}
	}
	if resp.IsError() {
		return "", &AssistantUnavailableError{Reason: fmt.Sprintf("generate returned %d", resp.StatusCode())}
	}

	var b strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", &AssistantUnavailableError{Reason: "empty answer"}
	}
	return answer, nil
}

func (c *Client) resolveModel(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != "" {
		return c.model, nil
	}

	var list modelList
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetResult(&list).
		Get("/v1beta/models")
	if err != nil {
		return "", &AssistantUnavailableError{Reason: "model discovery failed", Err: err}
	}
	if resp.IsError() {
		return "", &AssistantUnavailableError{Reason: fmt.Sprintf("model discovery returned %d", resp.StatusCode())}
	}

	var available []string
	for _, m := range list.Models {
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				available = append(available, m.Name)
				break
			}
		}
	}
	model := PickModel(available)
	if model == "" {
		return "", &AssistantUnavailableError{Reason: "no models available for this API key"}
	}
	c.log.Info("assistant model selected", zap.String("model", model))
	c.model = model
	return model, nil
}

// PickModel returns the first preferred model present in available, else the
// first available one.
func PickModel(available []string) string {
	for _, pref := range PreferredModels {
		for _, name := range available {
			if name == pref {
				return name
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}

// Asker is anything that can answer a question.
type Asker interface {
	Ask(ctx context.Context, question string, pc Context) (string, error)
}

// Service turns every failure into the apology.
type Service struct {
	asker Asker
	log   *zap.Logger
}

// NewService creates a Service over asker.
func NewService(asker Asker, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{asker: asker, log: log}
}

// Answer never fails.
func (s *Service) Answer(ctx context.Context, question string, pc Context) string {
	if s.asker == nil {
		return Apology
	}
	answer, err := s.asker.Ask(ctx, question, pc)
	if err != nil {
		s.log.Warn("assistant request failed", zap.Error(err))
		return Apology
	}
	return answer
}
