package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ctboard/internal/model"
)

const (
	actionTasks        = "tasks"
	actionArchiveTasks = "archive_tasks"
	actionUpsert       = "upsert"
	actionArchive      = "archive"
	actionRestore      = "restore"
	actionDelete       = "delete"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
	postMediaType  = "text/plain;charset=utf-8"
	requestIDKey   = "X-Request-Id"
	tracerName     = "ctboard/remote"
)

// Endpoint is the pair of configuration strings the client needs.
type Endpoint struct {
	URL   string
	Token string
}

func (e Endpoint) Configured() bool { return strings.TrimSpace(e.URL) != "" }

// Source yields the current endpoint. It is consulted on every call so a
// settings change takes effect without rebuilding the client.
type Source interface {
	Endpoint() Endpoint
}

type StaticSource Endpoint

func (s StaticSource) Endpoint() Endpoint { return Endpoint(s) }

type Client struct {
	src    Source
	http   *http.Client
	log    logrus.FieldLogger
	tracer trace.Tracer
	norm   *model.Normalizer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithNormalizer sets the vocabulary used to encode upserts and decode the
// returned task.
func WithNormalizer(n *model.Normalizer) Option {
	return func(c *Client) {
		if n != nil {
			c.norm = n
		}
	}
}

func New(src Source, opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		src:  src,
		http: &http.Client{Timeout: defaultTimeout},
		log:  discard,
		norm: model.NewNormalizer(nil),
	}
	for _, o := range opts {
		o(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

type requestIDCtxKey struct{}

// WithRequestID tags outgoing requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

func (c *Client) endpoint() (Endpoint, error) {
	if c.src == nil {
		return Endpoint{}, ErrConfigMissing
	}
	ep := c.src.Endpoint()
	if !ep.Configured() {
		return Endpoint{}, ErrConfigMissing
	}
	ep.URL = strings.TrimSpace(ep.URL)
	return ep, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.RawTask, error) {
	return c.list(ctx, actionTasks)
}

func (c *Client) ListArchivedTasks(ctx context.Context) ([]model.RawTask, error) {
	return c.list(ctx, actionArchiveTasks)
}

// List fetches the collection feeding mode.
func (c *Client) List(ctx context.Context, mode model.Mode) ([]model.RawTask, error) {
	if mode == model.ModeArchive {
		return c.ListArchivedTasks(ctx)
	}
	return c.ListTasks(ctx)
}

// Upsert creates the task when TaskID is empty, otherwise updates it. The
// returned task is the backend's row, normalized.
func (c *Client) Upsert(ctx context.Context, t model.Task) (model.Task, error) {
	resp, err := c.post(ctx, actionUpsert, map[string]any{"task": map[string]any(c.norm.Encode(t))})
	if err != nil {
		return model.Task{}, err
	}
	row, _ := resp["task"].(map[string]any)
	return c.norm.Normalize(model.RawTask(row)), nil
}

func (c *Client) Archive(ctx context.Context, taskID string) error {
	_, err := c.post(ctx, actionArchive, map[string]any{"task_id": taskID})
	return err
}

func (c *Client) Restore(ctx context.Context, taskID string) error {
	_, err := c.post(ctx, actionRestore, map[string]any{"task_id": taskID})
	return err
}

// Remove deletes a task permanently from the given collection.
func (c *Client) Remove(ctx context.Context, taskID string, from model.Origin) error {
	if !from.Valid() {
		return fmt.Errorf("delete: unknown origin %q", from)
	}
	_, err := c.post(ctx, actionDelete, map[string]any{"task_id": taskID, "from": string(from)})
	return err
}

func (c *Client) list(ctx context.Context, action string) (out []model.RawTask, err error) {
	ep, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	q := u.Query()
	q.Set("action", action)
	if ep.Token != "" {
		q.Set("token", ep.Token)
	}
	u.RawQuery = q.Encode()

	ctx, finish := c.observe(ctx, action, http.MethodGet)
	status := 0
	defer func() { finish(status, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	body, status, err := c.do(req, action)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := sonic.ConfigStd.Unmarshal(body, &payload); err != nil {
		return nil, &TransportError{Action: action, Status: status, Err: fmt.Errorf("%w: %v", errMalformed, err)}
	}
	items, ok := payload["tasks"].([]any)
	if !ok {
		return nil, &TransportError{Action: action, Status: status, Err: fmt.Errorf("%w: missing tasks array", errMalformed)}
	}
	out = make([]model.RawTask, 0, len(items))
	for _, it := range items {
		row, _ := it.(map[string]any)
		out = append(out, model.RawTask(row))
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, action string, fields map[string]any) (resp map[string]any, err error) {
	ep, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"action": action, "token": ep.Token}
	for k, v := range fields {
		payload[k] = v
	}
	buf, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", action, err)
	}

	ctx, finish := c.observe(ctx, action, http.MethodPost)
	status := 0
	defer func() { finish(status, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(buf))
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", postMediaType)
	body, status, err := c.do(req, action)
	if err != nil {
		return nil, err
	}
	if err := sonic.ConfigStd.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Action: action, Status: status, Err: fmt.Errorf("%w: %v", errMalformed, err)}
	}
	if resp == nil {
		return nil, &TransportError{Action: action, Status: status, Err: fmt.Errorf("%w: not an object", errMalformed)}
	}
	if ok, _ := resp["ok"].(bool); !ok {
		msg, _ := resp["error"].(string)
		return nil, &APIError{Action: action, Message: strings.TrimSpace(msg)}
	}
	return resp, nil
}

func (c *Client) do(req *http.Request, action string) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	if id := requestID(req.Context()); id != "" {
		req.Header.Set(requestIDKey, id)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Action: action, Err: err}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, res.StatusCode, &TransportError{Action: action, Status: res.StatusCode, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, res.StatusCode, &TransportError{
			Action: action,
			Status: res.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", res.Status),
		}
	}
	return body, res.StatusCode, nil
}

// observe opens a span for one round trip and returns the function that
// closes it and writes the request log entry.
func (c *Client) observe(ctx context.Context, action, method string) (context.Context, func(int, error)) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "remote."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ctboard.action", action),
			attribute.String("http.request.method", method),
		),
	)
	id := requestID(ctx)
	if id != "" {
		span.SetAttributes(attribute.String("ctboard.op_id", id))
	}
	return ctx, func(status int, err error) {
		fields := logrus.Fields{
			"action":      action,
			"method":      method,
			"status":      status,
			"duration_ms": durationToMillis(time.Since(start)),
		}
		if id != "" {
			fields["op_id"] = id
		}
		if status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			fields["error"] = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		c.log.WithFields(fields).Info("remote.request")
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
