package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	errprocess "social_network_client/pkg/err"
	"social_network_client/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// maxErrorBody 錯誤回應只讀前 4KB
const maxErrorBody = 4 << 10

// Options REST client setting
type Options struct {
	Timeout time.Duration
	// RetryMaxElapsed GET 在沒有回應時的重試上限, 0 表示不重試
	RetryMaxElapsed time.Duration
	// Jar 與 websocket 共用, nil 會建立新的
	Jar http.CookieJar
}

// Client REST collaborator of the social network backend
type Client struct {
	baseURL string
	http    *http.Client
	jar     http.CookieJar
	retry   time.Duration
}

// New create Client for baseURL, e.g. http://localhost:8000
func New(baseURL string, opts Options) (*Client, error) {
	jar := opts.Jar
	if jar == nil {
		j, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		jar = j
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: opts.Timeout},
		jar:     jar,
		retry:   opts.RetryMaxElapsed,
	}, nil
}

// Jar session cookie jar, hand it to the websocket dialer
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// BaseURL backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", r.method, r.path, errprocess.ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := errprocess.NewServerError(resp.StatusCode)
		se.Body = string(raw)
		logger.Log.Debug("api error response",
			zap.String("method", r.method), zap.String("path", r.path), zap.Int("status", resp.StatusCode))
		return nil, se
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", r.method, r.path, errprocess.ErrNoResponse, err)
	}
	return data, nil
}

// doRetry retry transport failures with exponential backoff, server answers are final
func (c *Client) doRetry(ctx context.Context, r request) ([]byte, error) {
	if c.retry <= 0 {
		return c.do(ctx, r)
	}

	var data []byte
	operation := func() error {
		d, err := c.do(ctx, r)
		if err != nil {
			if errors.Is(err, errprocess.ErrNoResponse) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		data = d
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Log.Warn("api request retry", zap.String("path", r.path), zap.Error(err), zap.Duration("retry_in", wait))
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.retry
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.doRetry(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(path, data, out)
}

func (c *Client) get(ctx context.Context, path string) error {
	_, err := c.doRetry(ctx, request{method: http.MethodGet, path: path})
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	return decode(path, data, out)
}

// Upload file part of a multipart form
type Upload struct {
	FileName string
	Content  io.Reader
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField string, file *Upload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if file != nil && file.Content != nil {
		part, err := w.CreateFormFile(fileField, file.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("read %s: %w", file.FileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	return err
}

func decode(path string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
