package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostkit/internal/logger"
)

// HTTPRequestService performs HTTP requests for script and resource loading.
type HTTPRequestService struct {
	initialized bool
	timeout     time.Duration
	client      *http.Client
}

// HTTPRequest describes an outgoing request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// HTTPResponse is a fully read response.
type HTTPResponse struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
}

// NewHTTPRequestService creates a service with the given request timeout.
// A non-positive timeout means 30 seconds.
func NewHTTPRequestService(timeout time.Duration) *HTTPRequestService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRequestService{timeout: timeout}
}

// Name returns the service name "xmlhttprequest" for registration.
func (h *HTTPRequestService) Name() string {
	return "xmlhttprequest"
}

// Initialize creates the HTTP client.
func (h *HTTPRequestService) Initialize() error {
	h.client = &http.Client{Timeout: h.timeout}
	h.initialized = true
	logger.Debug("HTTPRequestService initialized", "timeout", h.timeout.String())
	return nil
}

// SetTimeout changes the request timeout.
func (h *HTTPRequestService) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
	if h.client != nil {
		h.client.Timeout = timeout
	}
}

// SendRequest sends a request and reads the whole response body.
func (h *HTTPRequestService) SendRequest(ctx context.Context, request HTTPRequest) (*HTTPResponse, error) {
	if !h.initialized {
		return nil, fmt.Errorf("http request service not initialized")
	}
	if request.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}

	method := strings.ToUpper(request.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if request.Body != "" {
		body = strings.NewReader(request.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range request.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		logger.Debug("HTTP request failed", "method", method, "url", request.URL, "error", err)
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	logger.Debug("HTTP request completed", "method", method, "url", request.URL, "status_code", resp.StatusCode, "body_length", len(data))
	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
		Body:       data,
	}, nil
}

// Fetch performs a GET and fails on any non-2xx status.
func (h *HTTPRequestService) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := h.SendRequest(ctx, HTTPRequest{Method: http.MethodGet, URL: rawURL})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}
