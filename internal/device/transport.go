package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPTransport logs in as the subject and posts readings to the API.
type HTTPTransport struct {
	http     *resty.Client
	username string
	password string

	mu    sync.Mutex
	token string
}

// NewHTTPTransport creates a transport against baseURL.
func NewHTTPTransport(baseURL, username, password string) *HTTPTransport {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &HTTPTransport{http: client, username: username, password: password}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Login exchanges the credentials for an access token.
func (t *HTTPTransport) Login(ctx context.Context) error {
	var env envelope
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": t.username, "password": t.password}).
		SetResult(&env).
		SetError(&env).
		Post("/api/v1/auth/login")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("login rejected (%d): %s", resp.StatusCode(), env.Error)
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		return fmt.Errorf("login: no access token in response")
	}

	t.mu.Lock()
	t.token = data.AccessToken
	t.mu.Unlock()
	return nil
}

func (t *HTTPTransport) accessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// Send posts p, logging in first and once more if the token expired.
func (t *HTTPTransport) Send(ctx context.Context, p Payload) error {
	if t.accessToken() == "" {
		if err := t.Login(ctx); err != nil {
			return err
		}
	}
	status, err := t.post(ctx, p)
	if err == nil && status == http.StatusUnauthorized {
		if err := t.Login(ctx); err != nil {
			return err
		}
		status, err = t.post(ctx, p)
	}
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("post reading: unexpected status %d", status)
	}
	return nil
}

func (t *HTTPTransport) post(ctx context.Context, p Payload) (int, error) {
	resp, err := t.http.R().
		SetContext(ctx).
		SetAuthToken(t.accessToken()).
		SetBody(p).
		Post("/api/v1/readings")
	if err != nil {
		return 0, fmt.Errorf("post reading: %w", err)
	}
	return resp.StatusCode(), nil
}

// Publisher is the part of MQTTClient the MQTT transport needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTTransport publishes payloads on the subject's device topic.
type MQTTTransport struct {
	Client   Publisher
	Username string
}

func (t *MQTTTransport) Send(_ context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return t.Client.Publish(TopicFor(t.Username), 1, false, data)
}
