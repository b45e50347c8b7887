package httpclient

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
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20 // 1MB
)

// Client envuelve *http.Client con helpers comunes para adapters externos.
type Client struct {
	HTTP *http.Client
}

// New crea un Client con timeout acotado (default 10s).
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{Timeout: timeout},
	}
}

// NewWithTransport permite inyectar un Transport (p.ej. para tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	c := New(timeout)
	if tr != nil {
		c.HTTP.Transport = tr
	}
	return c
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// GetJSON hace un GET y decodifica la respuesta JSON en out.
// headers extra opcionales. Retorna *HTTPError si el status no es 2xx.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	return c.doJSONBody(ctx, http.MethodGet, rawURL, headers, nil, "", out)
}

// PostJSON hace un POST con body JSON y decodifica la respuesta en out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.doJSONBody(ctx, http.MethodPost, rawURL, headers, body, "application/json", out)
}

// PostForm hace un POST application/x-www-form-urlencoded y decodifica la
// respuesta JSON en out. Es el formato que esperan los token endpoints OAuth2.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	return c.doJSONBody(ctx, http.MethodPost, rawURL, nil, body, "application/x-www-form-urlencoded", out)
}

func (c *Client) doJSONBody(
	ctx context.Context,
	method string,
	rawURL string,
	headers map[string]string,
	body io.Reader,
	contentType string,
	out any,
) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return errors.New("httpclient: empty url")
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}
