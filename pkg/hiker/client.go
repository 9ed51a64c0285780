// Package hiker is the typed façade over the metered Instagram data
// API. It owns request pacing, retries and response normalization; one
// method per upstream capability, pure request/response with no
// session state.
package hiker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"igstat/pkg/config"
	"igstat/pkg/errors"
	"igstat/pkg/logger"
	"igstat/pkg/retry"
)

// Client talks to the data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	limiter    *rate.Limiter
	retrier    *retry.Retrier
	logger     logger.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.APIConfig, retryCfg *config.RetryConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.ProxyURL != "" {
		if proxy, err := url.Parse(cfg.ProxyURL); err == nil {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		} else {
			log.WithError(err).Warn("ignoring unparseable proxy URL")
		}
	}

	retrierCfg := retry.DefaultConfig()
	retrierCfg.Logger = log
	if retryCfg != nil {
		if !retryCfg.Enabled {
			retrierCfg.MaxAttempts = 1
		} else if retryCfg.MaxAttempts > 0 {
			retrierCfg.MaxAttempts = retryCfg.MaxAttempts
		}
		if retryCfg.BaseDelay > 0 || retryCfg.MaxDelay > 0 {
			backoff := retry.DefaultExponentialBackoff()
			if retryCfg.BaseDelay > 0 {
				backoff.BaseDelay = retryCfg.BaseDelay
			}
			if retryCfg.MaxDelay > 0 {
				backoff.MaxDelay = retryCfg.MaxDelay
			}
			retrierCfg.Backoff = backoff
		}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		accessKey:  cfg.AccessKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retrier:    retry.NewRetrier(retrierCfg),
		logger:     log,
	}
}

// getJSON performs a paced, retried GET and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	return c.retrier.WithContext(ctx).Do(func() error {
		body, err := c.doRequest(ctx, endpoint, params)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200]
			}
			c.logger.ErrorWithFields("failed to parse response", map[string]interface{}{
				"endpoint": endpoint,
				"error":    err.Error(),
				"preview":  preview,
			})
			return errors.Newf(errors.ErrorTypeMalformedResponse, "parse %s response: %v", endpoint, err)
		}
		return nil
	})
}

// doRequest performs a single GET round trip.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_key", c.accessKey)
	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errors.Error{Type: errors.ErrorTypeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	c.logger.DebugWithFields("api request", map[string]interface{}{
		"endpoint":    endpoint,
		"status_code": resp.StatusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{Type: errors.ErrorTypeNetwork, Message: fmt.Sprintf("read body: %v", err)}
	}

	if err := checkResponseStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkResponseStatus maps HTTP status codes to typed errors.
func checkResponseStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	detail := upstreamDetail(body)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &errors.Error{Type: errors.ErrorTypeUnauthorized, Message: detailOr(detail, "access key rejected"), Code: statusCode}
	case statusCode == http.StatusNotFound:
		return &errors.Error{Type: errors.ErrorTypeNotFound, Message: detailOr(detail, "resource not found"), Code: statusCode}
	case statusCode == http.StatusTooManyRequests:
		return &errors.Error{Type: errors.ErrorTypeRateLimited, Message: detailOr(detail, "rate limited by upstream"), Code: statusCode}
	case statusCode >= 500:
		return &errors.Error{Type: errors.ErrorTypeServerError, Message: detailOr(detail, "upstream server error"), Code: statusCode}
	default:
		return &errors.Error{Type: errors.ErrorTypeUnknown, Message: detailOr(detail, "unexpected status"), Code: statusCode}
	}
}

func upstreamDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}

func detailOr(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}
