package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	errs "likevault/pkg/errors"
	"likevault/pkg/logger"
	"likevault/pkg/retry"
)

// Client is a typed wrapper over the remote feed API. Both operations
// run under the metadata retry policy; on success they return fully
// populated values, never partial ones.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	policy     *retry.Policy
	logger     logger.Logger
}

// NewClient creates a new feed API client authenticated with a bearer token
func NewClient(baseURL, bearerToken string, timeout time.Duration, policy *retry.Policy, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Authorization": fmt.Sprintf("Bearer %s", bearerToken),
			"Accept":        "application/json",
		},
		baseURL: baseURL,
		policy:  policy,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// ListLikedItems fetches one page of the user's liked feed. The cursor
// is the opaque server-issued token from a previous page; empty means
// the head of the feed.
func (c *Client) ListLikedItems(ctx context.Context, userID, cursor string) (*Page, error) {
	if userID == "" {
		return nil, errs.New(errs.ErrorTypeClient, 0, "user id is required")
	}

	url := likedItemsURL(c.baseURL, userID, cursor)

	c.logger.DebugWithFields("listing liked items", map[string]interface{}{
		"user_id": userID,
		"cursor":  cursor,
	})

	return retry.DoWithResult(ctx, c.policy, func() (*Page, error) {
		var response listLikedResponse
		if err := c.getJSON(ctx, url, &response); err != nil {
			return nil, err
		}
		return response.toPage(), nil
	})
}

// FetchItemDetail fetches the full payload of one item. A NotFound
// outcome is first-class and non-fatal; callers skip the item.
func (c *Client) FetchItemDetail(ctx context.Context, itemID string) (*ItemDetail, error) {
	url := itemDetailURL(c.baseURL, itemID)

	c.logger.DebugWithFields("fetching item detail", map[string]interface{}{
		"item_id": itemID,
	})

	return retry.DoWithResult(ctx, c.policy, func() (*ItemDetail, error) {
		var response statusResponse
		if err := c.getJSON(ctx, url, &response); err != nil {
			return nil, err
		}
		return response.toDetail()
	})
}

// getJSON performs a single GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("feed request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, fmt.Sprintf("failed to parse JSON: %v", err))
	}

	return nil
}

// classifyTransportError maps transport failures: timeouts retry,
// anything else is fatal.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.New(errs.ErrorTypeTimeout, 0, fmt.Sprintf("request timed out: %v", err))
	}
	return errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("network error: %v", err))
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy
// the retry policies branch on.
func checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotModified:
		return nil
	case http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		if resp.StatusCode >= 400 {
			return errs.New(errs.ErrorTypeClient, resp.StatusCode,
				fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
		}
		return nil
	}
}
