package jfrog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/policyforge/policyforge-backend/internal/platform/envutil"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

const apiBasePath = "/unifiedpolicy/api/v1"

// Client talks to the remote governance platform's unified policy API.
// Publishing is explicit and on-demand, so there is no retry loop here:
// a failed call surfaces immediately and the caller decides what to do.
type Client interface {
	CreateTemplate(ctx context.Context, payload map[string]any) (*RemoteObject, error)
	UpdateTemplate(ctx context.Context, remoteID string, payload map[string]any) (*RemoteObject, error)
	GetTemplate(ctx context.Context, remoteID string) (*RemoteObject, error)
	DeleteTemplate(ctx context.Context, remoteID string) error

	CreateRule(ctx context.Context, payload map[string]any) (*RemoteObject, error)
	UpdateRule(ctx context.Context, remoteID string, payload map[string]any) (*RemoteObject, error)
	GetRule(ctx context.Context, remoteID string) (*RemoteObject, error)
	DeleteRule(ctx context.Context, remoteID string) error
}

type RemoteObject struct {
	ID         string
	StatusCode int
	Raw        map[string]any
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unified policy API error %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL    string
	APIToken   string
	ProjectKey string
	Timeout    time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("JFROG_TIMEOUT_SECONDS", 30)
	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("JFROG_BASE_URL")),
		APIToken:   strings.TrimSpace(os.Getenv("JFROG_API_TOKEN")),
		ProjectKey: strings.TrimSpace(os.Getenv("JFROG_PROJECT_KEY")),
		Timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing JFROG_BASE_URL")
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("missing JFROG_API_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &client{
		log:        log.With("client", "JFrogClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func (c *client) CreateTemplate(ctx context.Context, payload map[string]any) (*RemoteObject, error) {
	return c.create(ctx, apiBasePath+"/templates", payload)
}

func (c *client) UpdateTemplate(ctx context.Context, remoteID string, payload map[string]any) (*RemoteObject, error) {
	return c.update(ctx, apiBasePath+"/templates/"+remoteID, remoteID, payload)
}

func (c *client) GetTemplate(ctx context.Context, remoteID string) (*RemoteObject, error) {
	return c.get(ctx, apiBasePath+"/templates/"+remoteID, remoteID)
}

func (c *client) DeleteTemplate(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodDelete, apiBasePath+"/templates/"+remoteID, nil)
	return err
}

func (c *client) CreateRule(ctx context.Context, payload map[string]any) (*RemoteObject, error) {
	return c.create(ctx, apiBasePath+"/rules", payload)
}

func (c *client) UpdateRule(ctx context.Context, remoteID string, payload map[string]any) (*RemoteObject, error) {
	return c.update(ctx, apiBasePath+"/rules/"+remoteID, remoteID, payload)
}

func (c *client) GetRule(ctx context.Context, remoteID string) (*RemoteObject, error) {
	return c.get(ctx, apiBasePath+"/rules/"+remoteID, remoteID)
}

func (c *client) DeleteRule(ctx context.Context, remoteID string) error {
	_, err := c.do(ctx, http.MethodDelete, apiBasePath+"/rules/"+remoteID, nil)
	return err
}

func (c *client) create(ctx context.Context, path string, payload map[string]any) (*RemoteObject, error) {
	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	obj, err := objectFromResponse(resp)
	if err != nil {
		return nil, err
	}
	if obj.ID == "" {
		// Some deployments return the new id only via the Location header.
		if loc := resp.header.Get("Location"); loc != "" {
			parts := strings.Split(strings.TrimRight(loc, "/"), "/")
			obj.ID = parts[len(parts)-1]
		}
	}
	return obj, nil
}

func (c *client) update(ctx context.Context, path, remoteID string, payload map[string]any) (*RemoteObject, error) {
	resp, err := c.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return nil, err
	}
	obj, err := objectFromResponse(resp)
	if err != nil {
		return nil, err
	}
	if obj.ID == "" {
		obj.ID = remoteID
	}
	return obj, nil
}

func (c *client) get(ctx context.Context, path, remoteID string) (*RemoteObject, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	obj, err := objectFromResponse(resp)
	if err != nil {
		return nil, err
	}
	if obj.ID == "" {
		obj.ID = remoteID
	}
	return obj, nil
}

type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

func (c *client) do(ctx context.Context, method, path string, payload map[string]any) (*response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.log.Warn("remote API call failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	return &response{statusCode: resp.StatusCode, header: resp.Header, body: raw}, nil
}

func objectFromResponse(resp *response) (*RemoteObject, error) {
	obj := &RemoteObject{StatusCode: resp.statusCode}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return obj, nil
	}

	contentType := strings.ToLower(resp.header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/json") {
		obj.Raw = map[string]any{"raw": strings.TrimSpace(string(resp.body))}
		return obj, nil
	}

	var data map[string]any
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	obj.Raw = data
	if id, ok := data["id"].(string); ok {
		obj.ID = id
	}
	return obj, nil
}
