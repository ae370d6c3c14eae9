package supabase

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

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

// Client ходит в REST-интерфейс Supabase (PostgREST): /rest/v1/<table>.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Location — пояс, в котором хранятся даты без смещения (due_date).
	Location *time.Location
}

func NewClient(baseURL, apiKey string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Location:   time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func WithTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

func WithLocation(loc *time.Location) func(*Client) {
	return func(c *Client) {
		if loc != nil {
			c.Location = loc
		}
	}
}

func (c *Client) endpoint(table string, q url.Values) string {
	u := c.BaseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) selectRows(ctx context.Context, table string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, c.endpoint(table, q), nil, "", out)
}

func (c *Client) insert(ctx context.Context, table string, row, out any) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	return c.do(ctx, http.MethodPost, c.endpoint(table, nil), row, prefer, out)
}

func (c *Client) update(ctx context.Context, table string, q url.Values, patch, out any) error {
	return c.do(ctx, http.MethodPatch, c.endpoint(table, q), patch, "return=representation", out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, prefer string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode body: %v", domain.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUnavailable, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		kind := domain.ErrUnavailable
		if resp.StatusCode/100 == 4 {
			kind = domain.ErrRejected
		}
		return fmt.Errorf("%w: %s %s: %d: %s", kind, method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrUnavailable, req.URL.Path, err)
	}
	return nil
}

func eq(v any) string { return fmt.Sprintf("eq.%v", v) }

// in собирает фильтр in.(a,b); значения берутся в кавычки.
func in(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, `"`+strings.ReplaceAll(v, `"`, `\"`)+`"`)
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// ilike — точное сравнение без учёта регистра; * в PostgREST означает шаблон,
// поэтому его вырезаем.
func ilike(v string) string {
	return "ilike." + strings.ReplaceAll(strings.TrimSpace(v), "*", "")
}
