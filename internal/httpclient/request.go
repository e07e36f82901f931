package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request accumulates one outbound call. Setters return the receiver so
// calls chain; the request fires on Get or Post.
type Request struct {
	client  *Client
	headers map[string]string
	query   url.Values
	body    any
}

// SetHeader sets a header on this request, overriding any client default.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

// SetQueryParam adds a query parameter to the request URL.
func (r *Request) SetQueryParam(key, value string) *Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Add(key, value)
	return r
}

// SetBody sets the request body. []byte, string and io.Reader are sent
// as-is; anything else is marshalled to JSON and the Content-Type header
// is set accordingly.
func (r *Request) SetBody(body any) *Request {
	r.body = body
	return r
}

// Get executes the request against rawURL.
func (r *Request) Get(ctx context.Context, rawURL string) (*Response, error) {
	return r.do(ctx, http.MethodGet, rawURL)
}

// Post executes the request against rawURL.
func (r *Request) Post(ctx context.Context, rawURL string) (*Response, error) {
	return r.do(ctx, http.MethodPost, rawURL)
}

func (r *Request) do(ctx context.Context, method, rawURL string) (*Response, error) {
	target, err := r.buildURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	ctx, span := r.client.tracer.Start(ctx, fmt.Sprintf("HTTP %s", method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("provider", r.client.provider),
		),
	)
	defer span.End()

	body, err := r.encodeBody()
	if err != nil {
		r.fail(ctx, span, err)
		return nil, fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		r.fail(ctx, span, err)
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.http.Do(req)
	if err != nil {
		r.fail(ctx, span, err)
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		r.fail(ctx, span, err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	r.count(ctx, resp.StatusCode < http.StatusBadRequest)

	return &Response{Response: resp, body: payload}, nil
}

func (r *Request) buildURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(r.query) > 0 {
		values := parsed.Query()
		for key, list := range r.query {
			for _, value := range list {
				values.Add(key, value)
			}
		}
		parsed.RawQuery = values.Encode()
	}
	return parsed.String(), nil
}

func (r *Request) encodeBody() (io.Reader, error) {
	switch body := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(body), nil
	case string:
		return strings.NewReader(body), nil
	case io.Reader:
		return body, nil
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return bytes.NewReader(encoded), nil
	}
}

func (r *Request) fail(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	r.count(ctx, false)
}

func (r *Request) count(ctx context.Context, success bool) {
	r.client.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.client.provider),
		attribute.Bool("success", success),
	))
}

// Response is the fully-read reply to a request. The underlying body has
// already been consumed and closed; use Body or Decode instead.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the raw response payload.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response payload as text.
func (r *Response) String() string {
	return string(r.body)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// IsError reports whether the status code is 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Decode unmarshals the JSON payload into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.body, v)
}
