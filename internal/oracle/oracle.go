// Package oracle talks to the external column-mapping service.
//
// The service is advisory and fallible: it may mislabel columns, omit them,
// wrap its answer in one or two levels of "result", or return the mapping as
// a JSON-encoded string. Every failure mode, including the service being
// unreachable, degrades to the empty mapping. Nothing in this package is
// allowed to fail a batch.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Mapping maps a source column name to a canonical field column name.
type Mapping map[string]string

// Logger is the minimal logging interface used by the client.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Client calls the mapping oracle over HTTP.
//
// Edge cases:
//   - A zero Timeout defaults to 60s. The request is always bounded; a stuck
//     oracle must not block the batch.
//   - A nil HTTPClient uses a private default client. Tests inject their own.
//   - An empty URL short-circuits to the empty mapping without a request.
type Client struct {
	URL     string
	Token   string
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     Logger
}

const defaultTimeout = 60 * time.Second

// mappingRequest is the task payload the oracle expects.
type mappingRequest struct {
	ExcelColumns   []string            `json:"excel_columns"`
	DatabaseFields []string            `json:"database_fields"`
	DataRows       []map[string]string `json:"data_rows"`
}

// Map requests a best-effort column mapping for one batch.
//
// Errors never propagate: transport failures, non-2xx statuses, and
// undecodable bodies all return the empty mapping and log the degradation.
func (c *Client) Map(ctx context.Context, columns, fields []string, rows []map[string]string) Mapping {
	if strings.TrimSpace(c.URL) == "" {
		return Mapping{}
	}

	body, err := c.post(ctx, mappingRequest{
		ExcelColumns:   columns,
		DatabaseFields: fields,
		DataRows:       rows,
	})
	if err != nil {
		c.logf("oracle=degraded reason=%v", err)
		return Mapping{}
	}
	return DecodeMapping(body)
}

func (c *Client) post(ctx context.Context, task mappingRequest) ([]byte, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encode task: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form := url.Values{"task": {string(payload)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read oracle response: %w", err)
	}
	return body, nil
}

func (c *Client) logf(format string, v ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}

// DecodeMapping extracts a column mapping from an oracle response body.
//
// Shapes tolerated, in order of precedence:
//   - {"result": {"mapping": {...}}}
//   - {"result": {"result": {...}}}
//   - {"mapping": {...}}           (root-level mapping overrides "result")
//   - any of the above where the mapping is a JSON-encoded string
//
// Anything else decodes to the empty mapping; this function never fails.
// The oracle's "is_valid" bookkeeping key and non-string values are dropped.
func DecodeMapping(body []byte) Mapping {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Mapping{}
	}

	var mp any
	if res, ok := raw["result"]; ok {
		if rm, ok := res.(map[string]any); ok {
			if m, ok := rm["mapping"]; ok {
				mp = m
			} else if m, ok := rm["result"]; ok {
				mp = m
			}
		} else if s, ok := res.(string); ok {
			mp = s
		}
	}
	if m, ok := raw["mapping"]; ok {
		mp = m
	}

	if s, ok := mp.(string); ok {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return Mapping{}
		}
		mp = decoded
	}

	obj, ok := mp.(map[string]any)
	if !ok {
		return Mapping{}
	}

	out := make(Mapping, len(obj))
	for k, v := range obj {
		if k == "is_valid" {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
