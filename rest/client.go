// Package rest is the HTTP collaborator the synchronization core fetches
// through.
//
// Every endpoint answers with the envelope
//
//	{"success": true, "data": ..., "total": 42, "message": "..."}
//
// and failures are mapped onto the apierr taxonomy at this boundary. A 401
// invalidates the session here and surfaces as apierr.AuthError, which the
// cache never writes into an entry.
package rest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dailyyoga/dashsync/apierr"
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/routine"
	"github.com/dailyyoga/dashsync/session"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Result is a successful response envelope.
type Result struct {
	Status   int
	Data     json.RawMessage
	Total    int64
	HasTotal bool
	Message  string
}

// Decode unmarshals the envelope's data into v. An absent data field leaves
// v untouched.
func (r *Result) Decode(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(r.Data, v); err != nil {
		return &apierr.HTTPError{Status: r.Status, Message: ErrDecode("response data", err).Error()}
	}
	return nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Total   *int64          `json:"total"`
	Message string          `json:"message"`
}

type response struct {
	status int
	body   []byte
	err    error
}

// Client issues envelope requests against one API base URL.
type Client struct {
	log     logger.Logger
	cfg     *Config
	http    *fasthttp.Client
	session *session.State
}

// New creates a client. sess may be nil for unauthenticated use.
func New(log logger.Logger, cfg *Config, sess *session.State) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		log: log,
		cfg: cfg,
		http: &fasthttp.Client{
			Name:            cfg.UserAgent,
			ReadTimeout:     cfg.Timeout,
			WriteTimeout:    cfg.Timeout,
			MaxConnsPerHost: cfg.MaxConnsPerHost,
		},
		session: sess,
	}, nil
}

// Get reads a resource. Parameters named by {placeholders} in path fill the
// path; the rest become the query string.
func (c *Client) Get(ctx context.Context, path string, params cache.Params) (*Result, error) {
	return c.Do(ctx, fasthttp.MethodGet, path, params, nil)
}

// Post creates a resource or triggers an action.
func (c *Client) Post(ctx context.Context, path string, params cache.Params, body any) (*Result, error) {
	return c.Do(ctx, fasthttp.MethodPost, path, params, body)
}

// Put updates a resource.
func (c *Client) Put(ctx context.Context, path string, params cache.Params, body any) (*Result, error) {
	return c.Do(ctx, fasthttp.MethodPut, path, params, body)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string, params cache.Params) (*Result, error) {
	return c.Do(ctx, fasthttp.MethodDelete, path, params, nil)
}

// Do sends one request and interprets the envelope. A ctx that ends first
// abandons the request: cancellation yields apierr.CancelledError, an
// expired deadline apierr.NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, params cache.Params, body any) (*Result, error) {
	resolved, query, err := Expand(path, params)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if body != nil {
		if payload, err = sonic.Marshal(body); err != nil {
			return nil, ErrEncodeBody(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, apierr.Classify(err)
	}

	op := method + " " + resolved
	start := time.Now()
	done := make(chan response, 1)
	routine.GoNamed(c.log, "rest:"+op, func() {
		done <- c.roundTrip(ctx, method, resolved, query, payload)
	})

	var r response
	select {
	case r = <-done:
	case <-ctx.Done():
		c.log.Debug("request abandoned", zap.String("op", op), zap.Error(ctx.Err()))
		return nil, apierr.Classify(ctx.Err())
	}
	if r.err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.Duration("elapsed", time.Since(start)), zap.Error(r.err))
		return nil, &apierr.NetworkError{Op: op, Err: r.err}
	}

	res, err := c.interpret(op, r.status, r.body)
	c.log.Debug("request done",
		zap.String("op", op),
		zap.Int("status", r.status),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return res, err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query cache.Params, payload []byte) response {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
		}
	}
	encodeQuery(req.URI().QueryArgs(), query)
	if payload != nil {
		req.SetBody(payload)
		req.Header.SetContentType("application/json")
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return response{err: err}
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return response{status: resp.StatusCode(), body: body}
}

// interpret maps a status and envelope onto a Result or a classified error.
func (c *Client) interpret(op string, status int, body []byte) (*Result, error) {
	var (
		env       envelope
		decodeErr error
	)
	if len(body) > 0 {
		decodeErr = sonic.Unmarshal(body, &env)
	}
	msg := env.Message

	switch {
	case status == fasthttp.StatusUnauthorized:
		if c.session != nil {
			c.session.Invalidate("401 from " + op)
		}
		return nil, &apierr.AuthError{Message: msg}
	case status >= 400 && status < 500 && msg != "" &&
		status != fasthttp.StatusRequestTimeout && status != fasthttp.StatusTooManyRequests:
		return nil, &apierr.ValidationError{Status: status, Message: msg}
	case status < 200 || status >= 300:
		if msg == "" {
			msg = fasthttp.StatusMessage(status)
		}
		return nil, &apierr.HTTPError{Status: status, Message: msg}
	case decodeErr != nil:
		return nil, &apierr.HTTPError{Status: status, Message: ErrDecode("response envelope", decodeErr).Error()}
	case env.Success != nil && !*env.Success:
		if msg == "" {
			msg = "request failed"
		}
		return nil, &apierr.HTTPError{Status: status, Message: msg}
	}

	res := &Result{Status: status, Data: env.Data, Message: msg}
	if env.Total != nil {
		res.Total, res.HasTotal = *env.Total, true
	}
	return res, nil
}
