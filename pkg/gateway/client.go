package gateway

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

	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
	"liyu1981.xyz/platform-dashboard/pkg/observability"
)

// Client is the HTTP implementation of IGateway.
type Client struct {
	BaseURL          string
	HTTPClient       *http.Client
	RateLimiterStore *RateLimiterStore
	Metrics          *observability.Collector
}

// NewClient returns a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(authRequest{Email: email, Password: password})
	if err != nil {
		return "", &FetchError{Operation: OpAuthenticate, Err: err}
	}

	var resp authResponse
	if err := c.do(ctx, OpAuthenticate, http.MethodPost, "/api/Auth", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &FetchError{Operation: OpAuthenticate, Err: ErrEmptyToken}
	}
	return resp.Token, nil
}

func (c *Client) ListPlatforms(ctx context.Context, token string) ([]models.Platform, error) {
	var env dataEnvelope[[]models.Platform]
	if err := c.do(ctx, OpListPlatforms, http.MethodGet, "/api/Platforms", token, nil, &env); err != nil {
		return nil, err
	}
	return common.Mapper(env.Data, models.Platform.Summary), nil
}

func (c *Client) GetPlatformDetail(ctx context.Context, token, platformID string) (models.Platform, error) {
	var env dataEnvelope[models.Platform]
	path := "/api/Platforms/" + url.PathEscape(platformID)
	if err := c.do(ctx, OpGetPlatformDetail, http.MethodGet, path, token, nil, &env); err != nil {
		return models.Platform{}, err
	}
	return env.Data, nil
}

func (c *Client) GetSensorRecords(ctx context.Context, token, sensorID string) ([]models.Record, error) {
	var env dataEnvelope[[]models.Record]
	path := "/api/Records/" + url.PathEscape(sensorID)
	if err := c.do(ctx, OpGetSensorRecords, http.MethodGet, path, token, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) do(ctx context.Context, op Operation, method, path, token string, body []byte, out any) (err error) {
	logger := common.GetLoggerWith(
		common.LoggerNameGateway,
		zap.String(common.LoggerFieldCategory, string(op)),
	)

	start := time.Now()
	defer func() {
		c.Metrics.ObserveFetch(string(op), time.Since(start), err)
		if err != nil {
			logger.Warn("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		}
	}()

	if c.RateLimiterStore != nil {
		if err := c.RateLimiterStore.GetLimiter(op).Wait(ctx); err != nil {
			return &FetchError{Operation: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return &FetchError{Operation: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &FetchError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	logger.Debug("Request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
