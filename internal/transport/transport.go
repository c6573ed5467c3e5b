package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/NamanBalaji/vidloader/internal/logger"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultRequestTimeout = 60 * time.Second
	defaultIdleTimeout    = 90 * time.Second
	defaultUserAgent      = "VidLoader/1.0"
)

// Completion receives the outcome of a data task. resp carries status and
// headers only; the payload is delivered in body.
type Completion func(resp *http.Response, body []byte, err error)

// Task is an issued request. Resume starts it; Cancel asks it to stop.
type Task interface {
	Resume()
	Cancel()
}

// Requestable issues requests whose completion is reported asynchronously.
type Requestable interface {
	DataTask(req *http.Request, completion Completion) Task
}

// Options configures the HTTP client.
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      defaultUserAgent,
		RequestTimeout: defaultRequestTimeout,
	}
}

// Client implements Requestable over net/http.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP transport.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxConnsPerHost:       16,
	}

	logger.Debugf("HTTP transport created with timeouts: connect=%v, request=%v, idle=%v",
		defaultConnectTimeout, opts.RequestTimeout, defaultIdleTimeout)

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// DataTask prepares req for execution. Nothing is sent until Resume.
func (c *Client) DataTask(req *http.Request, completion Completion) Task {
	ctx, cancel := context.WithTimeout(req.Context(), c.opts.RequestTimeout)

	req = req.Clone(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	return &dataTask{
		client:     c.client,
		req:        req,
		cancel:     cancel,
		completion: completion,
	}
}

type dataTask struct {
	client     *http.Client
	req        *http.Request
	cancel     context.CancelFunc
	completion Completion
	once       sync.Once
}

func (t *dataTask) Resume() {
	t.once.Do(func() {
		go t.run()
	})
}

func (t *dataTask) Cancel() {
	t.cancel()
}

func (t *dataTask) run() {
	defer t.cancel()

	urlStr := t.req.URL.String()
	logger.Debugf("Sending %s request to %s", t.req.Method, urlStr)

	resp, err := t.client.Do(t.req)
	if err != nil {
		logger.Debugf("Request to %s failed: %v", urlStr, err)
		t.complete(nil, nil, ClassifyError(err, urlStr))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debugf("Reading body from %s failed: %v", urlStr, err)
		t.complete(nil, nil, ClassifyError(err, urlStr))
		return
	}

	logger.Debugf("Response from %s: status=%d, bytes=%d", urlStr, resp.StatusCode, len(body))
	resp.Body = http.NoBody
	t.complete(resp, body, nil)
}

func (t *dataTask) complete(resp *http.Response, body []byte, err error) {
	if t.completion != nil {
		t.completion(resp, body, err)
	}
}
