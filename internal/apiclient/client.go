// Package apiclient is the single request pipeline to the storefront admin
// API. It attaches the bearer token, logs the session out on 401 and turns
// failures into notifications so service code never handles those itself.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	LoginRoute      = "/login"
	maxResponseSize = 32 << 20
)

// TokenStore is the persisted credential the client reads and clears.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notifier surfaces transient messages to the operator.
type Notifier interface {
	Notify(level Level, message string)
}

// Navigator moves the operator to another route.
type Navigator interface {
	CurrentRoute() string
	Navigate(route string)
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore
	Notifier   Notifier
	Navigator  Navigator
	Logger     logrus.FieldLogger
	Limiter    *rate.Limiter
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	notifier   Notifier
	navigator  Navigator
	log        logrus.FieldLogger
	limiter    *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse BaseURL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		navigator:  cfg.Navigator,
		log:        log,
		limiter:    cfg.Limiter,
	}, nil
}

// NewLimiter allows perSecond requests a second with an equal burst. Zero or
// less means no limit.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Blob is a binary download such as a PDF report or CSV export.
type Blob struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Do sends req and decodes a JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	_, body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindOther, Message: GenericMessage, Err: fmt.Errorf("decode %s: %w", req.Path, err)}
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Download fetches a binary resource.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (Blob, error) {
	resp, body, err := c.send(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return Blob{}, err
	}
	blob := Blob{ContentType: resp.Header.Get("Content-Type"), Data: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		blob.Filename = params["filename"]
	}
	return blob, nil
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	u := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, err := c.tokens.Token(ctx); err != nil {
			c.log.WithError(err).Warn("read session token")
		} else if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": req.Path})
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		log.WithError(err).Warn("request failed without response")
		c.notify(LevelError, NetworkMessage)
		return nil, nil, &APIError{Kind: KindNetwork, Message: NetworkMessage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.notify(LevelError, NetworkMessage)
		return nil, nil, &APIError{Kind: KindNetwork, Status: resp.StatusCode, Message: NetworkMessage, Err: err}
	}

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp.StatusCode, respBody)
		log.WithFields(logrus.Fields{"status": resp.StatusCode, "kind": apiErr.Kind.String()}).Debug("request rejected")
		c.handleError(ctx, apiErr)
		return resp, nil, apiErr
	}
	return resp, respBody, nil
}

func (c *Client) handleError(ctx context.Context, e *APIError) {
	switch e.Kind {
	case KindAuth:
		if e.Message == "" {
			e.Message = SessionMessage
		}
		if c.tokens != nil {
			if err := c.tokens.Clear(ctx); err != nil {
				c.log.WithError(err).Warn("clear session after 401")
			}
		}
		if c.navigator != nil && c.navigator.CurrentRoute() != LoginRoute {
			c.navigator.Navigate(LoginRoute)
		}
	case KindForbidden:
		if e.Message == "" {
			e.Message = ForbiddenMessage
		}
		c.notify(LevelError, e.Message)
	case KindServer:
		if e.Message == "" {
			e.Message = ServerMessage
		}
		c.notify(LevelError, e.Message)
	case KindValidation:
		// field errors are rendered inline by the caller
		if e.Message == "" {
			e.Message = GenericMessage
		}
	default:
		if e.Message == "" {
			e.Message = GenericMessage
			return
		}
		c.notify(LevelError, e.Message)
	}
}

func (c *Client) notify(level Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(level, msg)
	}
}
