package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	errs "likevault/pkg/errors"
	"likevault/pkg/logger"
	"likevault/pkg/retry"
)

// Fetcher downloads raw photo bytes under the download retry policy.
// It performs no writes; the sink owns persistence.
type Fetcher struct {
	httpClient      *http.Client
	policy          *retry.Policy
	rewriteLargePNG bool
	logger          logger.Logger
}

// NewFetcher creates a media fetcher. When rewriteLargePNG is set, media
// URLs are rewritten to request the original-size PNG rendition.
func NewFetcher(timeout time.Duration, policy *retry.Policy, rewriteLargePNG bool, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy:          policy,
		rewriteLargePNG: rewriteLargePNG,
		logger:          log,
	}
}

// Download fetches the bytes behind a media URL. ok is false, with a nil
// error, when the content is gone upstream; callers skip that attachment
// without aborting the page.
func (f *Fetcher) Download(ctx context.Context, sourceURL string) (data []byte, ok bool, err error) {
	url := sourceURL
	if f.rewriteLargePNG {
		url = RewriteLargePNG(sourceURL)
	}

	f.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": url,
	})

	data, err = retry.DoWithResult(ctx, f.policy, func() ([]byte, error) {
		return f.fetch(ctx, url)
	})
	if err != nil {
		if errs.IsContentGone(err) {
			f.logger.InfoWithFields("media gone upstream", map[string]interface{}{
				"url": url,
			})
			return nil, false, nil
		}
		return nil, false, err
	}

	f.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, true, nil
}

// fetch performs a single GET for the media bytes
func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errs.New(errs.ErrorTypeTimeout, 0, fmt.Sprintf("download timed out: %v", err))
		}
		return nil, errs.New(errs.ErrorTypeUnknown, 0, fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	if err := checkMediaStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeTimeout, resp.StatusCode, fmt.Sprintf("failed to read media bytes: %v", err))
	}

	return data, nil
}

// checkMediaStatus maps media-host status codes onto the error taxonomy.
// A 404 here means the content was deleted upstream, not a bad request,
// so it classifies as content_gone rather than not_found.
func checkMediaStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return errs.New(errs.ErrorTypeContentGone, resp.StatusCode, "content no longer available")
	case http.StatusTooManyRequests:
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		return errs.New(errs.ErrorTypeClient, resp.StatusCode,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
}

// RewriteLargePNG rewrites a media URL so the host serves the
// original-size PNG rendition instead of the default-sized JPEG.
// https://host/media/abc.jpg -> https://host/media/abc?format=png&name=large
func RewriteLargePNG(sourceURL string) string {
	trimmed := sourceURL
	if idx := strings.LastIndex(sourceURL, "."); idx > strings.LastIndex(sourceURL, "/") {
		trimmed = sourceURL[:idx]
	}
	return trimmed + "?format=png&name=large"
}
