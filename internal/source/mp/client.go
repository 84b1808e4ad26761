package mp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mp_scraper/internal/domain"
)

const (
	searchPath  = "/cgi-bin/searchbiz"
	listingPath = "/cgi-bin/appmsg"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"
)

// Credentials is the opaque session material shared by every call in a
// batch. Read-only, safe for concurrent use.
type Credentials struct {
	Token  string
	Cookie string
}

// Config holds vendor client configuration.
type Config struct {
	BaseURL     string
	PageSize    int
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client resolves account names and pages through article feeds against the
// vendor API. It implements service.AccountResolver and service.PageFetcher.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	pageSize    int
	maxAttempts int
	retryDelay  time.Duration
	creds       Credentials
	logger      *slog.Logger
}

func New(cfg Config, creds Credentials, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		pageSize:    cfg.PageSize,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		creds:       creds,
		logger:      logger.With("component", "mp_client"),
	}
}

// PageSize returns the listing page size the vendor serves.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Resolve searches for an account by display name and picks the top match.
// Returns NotFoundError when the search comes back empty and AuthError when
// the session is rejected.
func (c *Client) Resolve(ctx context.Context, displayName string) (domain.AccountHandle, error) {
	params := url.Values{
		"action": {"search_biz"},
		"begin":  {"0"},
		"count":  {"5"},
		"query":  {displayName},
	}

	var resp SearchResponse
	if err := c.getJSONWithRetry(ctx, searchPath, params, "search account", &resp); err != nil {
		return domain.AccountHandle{}, err
	}

	if resp.BaseResp.AuthFailure() {
		return domain.AccountHandle{}, &domain.AuthError{Ret: resp.BaseResp.Ret, ErrMsg: resp.BaseResp.ErrMsg}
	}
	if resp.BaseResp.Ret != 0 {
		return domain.AccountHandle{}, &domain.TransportError{
			Op:  "search account",
			Err: fmt.Errorf("vendor error ret=%d: %s", resp.BaseResp.Ret, resp.BaseResp.ErrMsg),
		}
	}
	if len(resp.List) == 0 {
		return domain.AccountHandle{}, &domain.NotFoundError{Account: displayName}
	}

	top := resp.List[0]
	c.logger.Debug("resolved account",
		"display_name", displayName,
		"internal_id", top.FakeID,
		"candidates", len(resp.List),
	)

	return domain.AccountHandle{
		InternalID:  top.FakeID,
		DisplayName: displayName,
	}, nil
}

// FetchPage fetches one listing page at the given cursor offset. The feed is
// reverse-chronological; offset 0 is the newest page.
func (c *Client) FetchPage(ctx context.Context, handle domain.AccountHandle, offset int) (domain.Page, error) {
	params := url.Values{
		"action": {"list_ex"},
		"begin":  {strconv.Itoa(offset)},
		"count":  {strconv.Itoa(c.pageSize)},
		"fakeid": {handle.InternalID},
		"type":   {"9"},
		"query":  {""},
	}

	var resp ListResponse
	if err := c.getJSONWithRetry(ctx, listingPath, params, "fetch page", &resp); err != nil {
		return domain.Page{}, err
	}

	if resp.BaseResp.AuthFailure() {
		return domain.Page{}, &domain.AuthError{Ret: resp.BaseResp.Ret, ErrMsg: resp.BaseResp.ErrMsg}
	}
	if resp.BaseResp.Ret != 0 {
		return domain.Page{}, &domain.TransportError{
			Op:  "fetch page",
			Err: fmt.Errorf("vendor error ret=%d: %s", resp.BaseResp.Ret, resp.BaseResp.ErrMsg),
		}
	}

	page := domain.Page{
		Items:      make([]domain.ArticleSummary, 0, len(resp.AppMsgList)),
		TotalCount: resp.AppMsgCnt,
	}
	for _, item := range resp.AppMsgList {
		page.Items = append(page.Items, domain.ArticleSummary{
			Title:            item.Title,
			URL:              item.Link,
			Digest:           item.Digest,
			PublishTimestamp: item.CreateTime,
		})
	}

	c.logger.Debug("fetched page",
		"account", handle.DisplayName,
		"offset", offset,
		"items", len(page.Items),
	)

	return page, nil
}

// getJSONWithRetry runs one GET with up to maxAttempts tries and a fixed
// delay between them. Only transport-level failures are retried; a decoded
// body is always returned to the caller for envelope inspection.
func (c *Client) getJSONWithRetry(ctx context.Context, path string, params url.Values, op string, out any) error {
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.getJSON(ctx, path, params, out)
		if err == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt,
			"delay", c.retryDelay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return &domain.TransportError{Op: op, Err: ctx.Err()}
		case <-time.After(c.retryDelay):
		}
	}

	return &domain.TransportError{
		Op:  op,
		Err: fmt.Errorf("after %d attempts: %w", c.maxAttempts, err),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("token", c.creds.Token)
	params.Set("lang", "zh_CN")
	params.Set("f", "json")
	params.Set("ajax", "1")

	reqURL := c.baseURL + path + "?" + params.Encode()

	// An in-flight request always runs to completion; cancellation is honored
	// between pages and between retry waits, never mid-request. The client
	// timeout still bounds the call.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.creds.Cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
