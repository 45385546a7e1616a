package eventqueue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	contentTypeJSON = "application/json"
	maxDetailBytes  = 4 << 10
)

// Request is a single send attempt to a collector endpoint.
type Request struct {
	Method string
	Header map[string]string
	Body   []byte
}

// Response is the collector's answer to a Request.
type Response struct {
	StatusCode int
	// Status is the status text without the code (e.g., "Bad Request").
	Status string
	// Body holds a bounded prefix of the response body.
	Body string
}

// OK reports whether the collector accepted the request.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// DeliveryClient sends requests to collector endpoints.
type DeliveryClient interface {
	// Deliver sends req to endpoint. Timeouts are the client's responsibility.
	Deliver(ctx context.Context, endpoint string, req Request) (*Response, error)
}

// DeliveryClientFunc adapts a function to DeliveryClient.
type DeliveryClientFunc func(ctx context.Context, endpoint string, req Request) (*Response, error)

// Deliver implements DeliveryClient.
func (fn DeliveryClientFunc) Deliver(ctx context.Context, endpoint string, req Request) (*Response, error) {
	return fn(ctx, endpoint, req)
}

// HTTPClient delivers requests over net/http.
type HTTPClient struct {
	client *http.Client
}

var _ DeliveryClient = (*HTTPClient)(nil)

// NewHTTPClient wraps client, using http.DefaultClient when client is nil.
func NewHTTPClient(client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPClient{client: client}
}

// Deliver implements DeliveryClient.
func (c *HTTPClient) Deliver(ctx context.Context, endpoint string, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("eventqueue: build request failed: %w", err)
	}
	for key, value := range req.Header {
		httpReq.Header.Set(key, value)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, maxDetailBytes))
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     http.StatusText(httpResp.StatusCode),
		Body:       string(body),
	}
	if readErr != nil && resp.OK() {
		return nil, fmt.Errorf("eventqueue: read response failed: %w", readErr)
	}

	return resp, nil
}

// DeliveryError describes a failed send attempt.
type DeliveryError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Detail     string
	Err        error
}

// Error implements error.
func (e *DeliveryError) Error() string {
	var b strings.Builder
	b.WriteString("eventqueue: delivery to ")
	b.WriteString(e.Endpoint)
	b.WriteString(" failed: ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())

		return b.String()
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "%d", e.StatusCode)
	} else {
		b.WriteString("unknown")
	}
	if e.Status != "" {
		b.WriteString(" ")
		b.WriteString(e.Status)
	}
	if e.Detail != "" {
		b.WriteString(" - ")
		b.WriteString(e.Detail)
	}

	return b.String()
}

// Unwrap returns ErrDeliveryFailed and the transport error, if any.
func (e *DeliveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDeliveryFailed}
	}

	return []error{ErrDeliveryFailed, e.Err}
}

// send performs one POST and converts every non-success outcome, including a
// panicking client, into a *DeliveryError.
func send(ctx context.Context, client DeliveryClient, endpoint string, body []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &DeliveryError{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrClientPanic, rec)}
		}
	}()

	resp, err := client.Deliver(ctx, endpoint, Request{
		Method: http.MethodPost,
		Header: map[string]string{"Content-Type": contentTypeJSON},
		Body:   body,
	})
	if err != nil {
		return &DeliveryError{Endpoint: endpoint, Err: err}
	}
	if resp == nil {
		return &DeliveryError{Endpoint: endpoint, Err: ErrNilResponse}
	}
	if !resp.OK() {
		return &DeliveryError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     strings.TrimSpace(resp.Body),
		}
	}

	return nil
}

// IsDeliveryError reports whether err carries a *DeliveryError.
func IsDeliveryError(err error) bool {
	var target *DeliveryError

	return errors.As(err, &target)
}
