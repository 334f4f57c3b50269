// Package graph is the HTTP client for the cloud drive collaborator:
// change feed pages, item metadata reads, content downloads, and metadata
// patches.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/skillsenselab/drivescribe/auth"
	apperrors "github.com/skillsenselab/drivescribe/errors"
	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/resilience"
)

// Client talks to the drive API over REST.
type Client struct {
	cfg    Config
	client *http.Client
	tokens auth.Source
	log    *logger.Logger
	retry  resilience.RetryConfig
}

// NewClient creates a drive API client.
func NewClient(cfg Config, tokens auth.Source, log *logger.Logger) *Client {
	cfg.ApplyDefaults()
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxAttempts
	retry.RetryIf = func(err error) bool {
		if errors.Is(err, feed.ErrCursorInvalid) || errors.Is(err, ErrItemNotFound) {
			return false
		}
		return resilience.DefaultRetryIf(err)
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		log:    log.WithComponent("graph"),
		retry:  retry,
	}
}

// ErrItemNotFound reports a missing item on metadata or content calls.
var ErrItemNotFound = errors.New("graph: item not found")

// LatestToken synthesizes the "start from latest" delta URL for a drive.
func (c *Client) LatestToken(resourceID string) string {
	return fmt.Sprintf("%s/drives/%s/root/delta?token=latest",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(resourceID))
}

// FetchPage retrieves one change feed page. The token is the full delta or
// continuation URL handed out by the service; it is never parsed locally.
func (c *Client) FetchPage(ctx context.Context, token string) (feed.Page, error) {
	return resilience.Retry(ctx, c.retry, func() (feed.Page, error) {
		return c.fetchPage(ctx, token)
	})
}

func (c *Client) fetchPage(ctx context.Context, token string) (feed.Page, error) {
	body, status, err := c.do(ctx, http.MethodGet, token, nil, "")
	if err != nil {
		return feed.Page{}, err
	}
	switch {
	case status == http.StatusGone:
		// The service reports an expired delta token as 410 with a
		// resync hint; either way the stored cursor is unusable.
		return feed.Page{}, feed.ErrCursorInvalid
	case status != http.StatusOK:
		return feed.Page{}, fmt.Errorf("graph: delta fetch status %d: %s", status, truncate(body))
	}

	var decoded deltaPage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return feed.Page{}, fmt.Errorf("graph: decode delta page: %w", err)
	}
	return decoded.toFeedPage(), nil
}

// ItemFields reads the custom metadata fields of an item. The read is always
// fresh; nothing is cached between calls.
func (c *Client) ItemFields(ctx context.Context, containerID, itemID string) (map[string]string, error) {
	endpoint := c.itemURL(containerID, itemID) + "/listItem/fields"
	body, status, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrItemNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("graph: item fields status %d: %s", status, truncate(body))
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("graph: decode item fields: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields, nil
}

// DownloadContent fetches the full byte content of an item, refusing to
// buffer more than maxBytes.
func (c *Client) DownloadContent(ctx context.Context, containerID, itemID string, maxBytes int64) ([]byte, error) {
	return resilience.Retry(ctx, c.retry, func() ([]byte, error) {
		return c.downloadContent(ctx, containerID, itemID, maxBytes)
	})
}

func (c *Client) downloadContent(ctx context.Context, containerID, itemID string, maxBytes int64) ([]byte, error) {
	endpoint := c.itemURL(containerID, itemID) + "/content"
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph: content request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrItemNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graph: content status %d: %s", resp.StatusCode, truncate(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("graph: read content: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("graph: content exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// PatchItemFields writes custom metadata fields in a single update call.
func (c *Client) PatchItemFields(ctx context.Context, containerID, itemID string, fields map[string]string) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("graph: encode fields: %w", err)
	}
	endpoint := c.itemURL(containerID, itemID) + "/listItem/fields"
	_, err = resilience.Retry(ctx, c.retry, func() (struct{}, error) {
		body, status, err := c.do(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload), "application/json")
		if err != nil {
			return struct{}{}, err
		}
		if status == http.StatusNotFound {
			return struct{}{}, ErrItemNotFound
		}
		if status != http.StatusOK && status != http.StatusNoContent {
			return struct{}{}, fmt.Errorf("graph: patch status %d: %s", status, truncate(body))
		}
		return struct{}{}, nil
	})
	return err
}

// Ping checks the API root is reachable, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.BaseURL, nil, "")
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph: ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) itemURL(containerID, itemID string) string {
	return fmt.Sprintf("%s/drives/%s/items/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(containerID), url.PathEscape(itemID))
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("graph: create request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, int, error) {
	req, err := c.newRequest(ctx, method, endpoint, body, contentType)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, apperrors.Timeout(method + " " + req.URL.Path).WithCause(err)
		}
		return nil, 0, fmt.Errorf("graph: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("graph: read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// --- wire types ---

type deltaPage struct {
	Value     []driveItem `json:"value"`
	NextLink  string      `json:"@odata.nextLink"`
	DeltaLink string      `json:"@odata.deltaLink"`
}

type driveItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	File            *struct{} `json:"file"`
	Audio           *struct{} `json:"audio"`
	Deleted         *struct{} `json:"deleted"`
	ParentReference struct {
		DriveID string `json:"driveId"`
	} `json:"parentReference"`
}

func (p deltaPage) toFeedPage() feed.Page {
	page := feed.Page{
		NextToken:  p.NextLink,
		DeltaToken: p.DeltaLink,
	}
	for _, item := range p.Value {
		page.Items = append(page.Items, feed.CandidateItem{
			ItemID:    item.ID,
			Name:      item.Name,
			Size:      item.Size,
			ParentID:  item.ParentReference.DriveID,
			IsFile:    item.File != nil,
			IsDeleted: item.Deleted != nil,
			HasAudio:  item.Audio != nil,
		})
	}
	return page
}

var _ feed.Source = (*Client)(nil)
