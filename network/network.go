// Package network is the networking subsystem handed to hosted applications:
// HTTP requests, message sockets and opening URIs in the host.
package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// ErrOpenURIUnsupported is returned when the host cannot open URIs.
var ErrOpenURIUnsupported = errors.New("network: opening URIs is not supported by this host")

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Headers    map[string]string
	// OpenURI asks the host to open uri (new tab, system browser).
	OpenURI func(uri string) error
}

// Request is an HTTP request issued by the application.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a completed HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client implements the networking subsystem.
type Client struct {
	http    *resty.Client
	dialer  *websocket.Dialer
	openURI func(string) error
}

// New creates a client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(opts.RetryCount).
		SetHeaders(opts.Headers)
	if opts.BaseURL != "" {
		rc.SetBaseURL(opts.BaseURL)
	}

	return &Client{
		http: rc,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		openURI: opts.OpenURI,
	}
}

// Do performs req and waits for the response. Non-2xx statuses are not
// errors; callers inspect Response.Status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return &Response{
		Status: resp.StatusCode(),
		Header: resp.Header(),
		Body:   resp.Body(),
	}, nil
}

// Send performs req in the background and calls done with the result from
// another goroutine. Use the runtime's PostDeferred to get back onto the
// frame thread.
func (c *Client) Send(ctx context.Context, req Request, done func(*Response, error)) {
	go func() {
		done(c.Do(ctx, req))
	}()
}

// OpenURI asks the host to open uri.
func (c *Client) OpenURI(uri string) error {
	if c.openURI == nil {
		return ErrOpenURIUnsupported
	}
	return c.openURI(uri)
}

// Socket is a message-oriented connection.
type Socket struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// OpenSocket dials a websocket at url.
func (c *Client) OpenSocket(ctx context.Context, url string, header http.Header) (*Socket, error) {
	conn, resp, err := c.dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open socket %s: %w", url, err)
	}
	return &Socket{conn: conn}, nil
}

// Send writes a binary message.
func (s *Socket) Send(msg []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// SendText writes a text message.
func (s *Socket) SendText(msg string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Receive blocks until the next message arrives.
func (s *Socket) Receive() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Close sends a close frame and closes the connection.
func (s *Socket) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.wmu.Unlock()
	return s.conn.Close()
}
