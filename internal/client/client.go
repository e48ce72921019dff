package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/common"
	"example.com/cansubmit/internal/session"
	"example.com/cansubmit/internal/taxonomy"
)

// Client talks to a running submission daemon. It satisfies
// taxonomy.Source, so a session's cascade can fetch straight from it.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the daemon at base, e.g. "http://localhost:8080".
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmissionError is a non-2xx answer to a submission attempt. The server's
// detail text is surfaced verbatim when present.
type SubmissionError struct {
	Status int
	Detail string
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Makes lists the known vehicle makes.
func (c *Client) Makes(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/api/makes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Models lists the models of one make.
func (c *Client) Models(ctx context.Context, makeName string) ([]string, error) {
	q := url.Values{"make": {makeName}}
	var out []string
	if err := c.getJSON(ctx, "/api/models", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Generations lists the concrete generations of one make and model.
func (c *Client) Generations(ctx context.Context, makeName, modelName string) ([]taxonomy.Generation, error) {
	q := url.Values{"make": {makeName}, "model": {modelName}}
	var out []taxonomy.Generation
	if err := c.getJSON(ctx, "/api/generations", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Parameters preloads the parameter catalog. query optionally narrows by
// substring; limit caps the result (the server applies its own default when
// limit is zero).
func (c *Client) Parameters(ctx context.Context, query string, limit int) ([]catalog.Entry, error) {
	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []catalog.Entry
	if err := c.getJSON(ctx, "/api/parameters", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BusTypes lists bus-type metadata. Failures degrade to an empty list.
func (c *Client) BusTypes(ctx context.Context) []catalog.BusType {
	var out []catalog.BusType
	if err := c.getJSON(ctx, "/api/bus-types", nil, &out); err != nil {
		common.Logf("bus-types fetch degraded: %v", err)
		return nil
	}
	return out
}

// CanBuses lists bus-speed metadata. Failures degrade to an empty list.
func (c *Client) CanBuses(ctx context.Context) []catalog.CanBus {
	var out []catalog.CanBus
	if err := c.getJSON(ctx, "/api/can-buses", nil, &out); err != nil {
		common.Logf("can-buses fetch degraded: %v", err)
		return nil
	}
	return out
}

// Dimensions lists physical-unit metadata. Failures degrade to an empty
// list.
func (c *Client) Dimensions(ctx context.Context) []catalog.Dimension {
	var out []catalog.Dimension
	if err := c.getJSON(ctx, "/api/dimensions", nil, &out); err != nil {
		common.Logf("dimensions fetch degraded: %v", err)
		return nil
	}
	return out
}

// GenerationParameters lists previously submitted parameter names for one
// generation.
func (c *Client) GenerationParameters(ctx context.Context, generationID int) ([]catalog.Usage, error) {
	q := url.Values{"generation_id": {strconv.Itoa(generationID)}}
	var out []catalog.Usage
	if err := c.getJSON(ctx, "/api/generation-parameters", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitResult is the server's acknowledgement of an accepted submission.
type SubmitResult struct {
	ID    int64 `json:"id"`
	Saved int   `json:"saved"`
}

// Submit posts an assembled payload. A non-2xx answer is returned as a
// SubmissionError carrying the server's detail text.
func (c *Client) Submit(ctx context.Context, p session.Payload) (SubmitResult, error) {
	var res SubmitResult
	body, err := json.Marshal(p)
	if err != nil {
		return res, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/submissions", bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, submissionError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return submissionError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func submissionError(resp *http.Response) error {
	apiErr := &SubmissionError{Status: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Detail = strings.TrimSpace(body.Detail)
	}
	return apiErr
}
