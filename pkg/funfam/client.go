package funfam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public CATH server.
	DefaultBaseURL = "https://www.cathdb.info"

	defaultUserAgent   = "cathbaker-cli"
	defaultMaxBodySize = 256 * 1024 * 1024
)

var (
	// ErrFetch is returned when the CATH API cannot be reached or answers with a non-2xx status.
	ErrFetch = errors.New("funfam: fetch failed")
	// ErrParse is returned when a cached payload is not a valid Funfam listing.
	ErrParse = errors.New("funfam: malformed payload")
)

// Client talks to the CATH REST API.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
	// MaxBodySize caps how much of a response is read.
	MaxBodySize int64
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
// The http.Client has no timeout; a run blocks until the server answers.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{},
		UserAgent:   defaultUserAgent,
		MaxBodySize: defaultMaxBodySize,
	}
}

// FunfamsURL is the listing endpoint for a CATH version.
func (c *Client) FunfamsURL(version string) string {
	return fmt.Sprintf("%s/version/%s/api/rest/funfam", c.BaseURL, url.PathEscape(version))
}

// AlignmentURL is the seed alignment endpoint for one Funfam.
func (c *Client) AlignmentURL(version, superfamilyID string, funfamNumber int) string {
	return fmt.Sprintf("%s/version/%s/api/rest/superfamily/%s/funfam/%s/files/seed_alignment",
		c.BaseURL, url.PathEscape(version), url.PathEscape(superfamilyID), strconv.Itoa(funfamNumber))
}

// FetchFunfams returns the raw JSON listing of every Funfam in a version.
func (c *Client) FetchFunfams(ctx context.Context, version string) ([]byte, error) {
	return c.get(ctx, c.FunfamsURL(version), "application/json")
}

// FetchAlignment returns the seed alignment of one Funfam in STOCKHOLM format.
func (c *Client) FetchAlignment(ctx context.Context, version, superfamilyID string, funfamNumber int) ([]byte, error) {
	return c.get(ctx, c.AlignmentURL(version, superfamilyID, funfamNumber), "text/plain")
}

func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", accept)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrFetch, rawURL, resp.Status)
	}

	limit := c.MaxBodySize
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: GET %s: content-length %d exceeds limit of %d bytes", ErrFetch, rawURL, resp.ContentLength, limit)
	}
	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: read body: %v", ErrFetch, rawURL, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: GET %s: body exceeds limit of %d bytes", ErrFetch, rawURL, limit)
	}
	return body, nil
}
