package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

const apiPrefix = "/api/v1"

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	backoff    func() retry.Backoff
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
		},
	}
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (c *HTTPClient) Register(ctx context.Context, username, email string, password []byte) (*User, error) {
	body := map[string]string{"username": username, "email": email, "password": string(password)}
	var u User
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/register", "", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	body := map[string]string{"email": email, "password": string(password)}
	var s Session
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/login", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	var t AccessToken
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/refresh-token", "", map[string]string{"refresh_token": refreshToken}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) (int64, error) {
	var out struct {
		Revoked int64 `json:"revoked"`
	}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/logout", accessToken, nil, &out); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

// Me is idempotent, so transport failures are retried a couple of times.
func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*User, error) {
	var u User
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, apiPrefix+"/me", accessToken, nil, &u)
		if errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Ping checks /healthz once; the online watcher does its own polling.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}

	if err := mapStatus(resp.StatusCode, &env); err != nil {
		return err
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func mapStatus(code int, env *envelope) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusNotFound && env.Message == "no active session":
		return ErrNoSession
	case code == http.StatusServiceUnavailable, code == http.StatusBadGateway, code == http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return &APIError{StatusCode: code, Message: env.Message, Fields: env.Errors}
	}
}
