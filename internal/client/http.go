package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"go-aggregator/internal/types"
	"go-aggregator/pkg/pool"
)

// StatusError reports a non-2xx response from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s upstream returned status %d", e.Service, e.StatusCode)
}

// IsTimeout distinguishes the timeout error class from the status/other
// class.
func IsTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type HTTPClient struct {
	userURL    string
	orderURL   string
	paymentURL string

	mu      sync.Mutex
	clients map[string]*fasthttp.HostClient
}

func NewHTTPClient(userURL, orderURL, paymentURL string) *HTTPClient {
	return &HTTPClient{
		userURL:    userURL,
		orderURL:   orderURL,
		paymentURL: paymentURL,
		clients:    make(map[string]*fasthttp.HostClient),
	}
}

func (h *HTTPClient) getOrCreateClient(targetURL string) *fasthttp.HostClient {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil
	}

	host := parsedURL.Host

	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[host]; exists {
		return client
	}

	client := &fasthttp.HostClient{
		Addr:                          host,
		MaxConns:                      50,
		MaxIdleConnDuration:           30 * time.Second,
		MaxIdemponentCallAttempts:     1,
		ReadTimeout:                   5 * time.Second,
		WriteTimeout:                  5 * time.Second,
		MaxResponseBodySize:           4096,
		DisableHeaderNamesNormalizing: true,
		DisablePathNormalizing:        true,
		NoDefaultUserAgentHeader:      true,
	}

	h.clients[host] = client
	return client
}

func (h *HTTPClient) FetchUser(ctx context.Context) (*types.UserRecord, error) {
	var record types.UserRecord
	if err := h.getJSON(ctx, "user", h.userURL+"/user", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (h *HTTPClient) FetchOrder(ctx context.Context) (*types.OrderRecord, error) {
	var record types.OrderRecord
	if err := h.getJSON(ctx, "order", h.orderURL+"/order", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (h *HTTPClient) FetchPayment(ctx context.Context, forceFail bool) (*types.PaymentRecord, error) {
	targetURL := h.paymentURL + "/payment"
	if forceFail {
		targetURL += "?fail=true"
	}

	var record types.PaymentRecord
	if err := h.getJSON(ctx, "payment", targetURL, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (h *HTTPClient) getJSON(ctx context.Context, service, targetURL string, out any) error {
	client := h.getOrCreateClient(targetURL)
	if client == nil {
		return fmt.Errorf("invalid URL: %s", targetURL)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	parsedURL, _ := url.Parse(targetURL)
	uri := parsedURL.Path
	if parsedURL.RawQuery != "" {
		uri += "?" + parsedURL.RawQuery
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetHost(parsedURL.Host)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.DoDeadline(req, resp, deadline)
	} else {
		err = client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("%s fetch failed: %w", service, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return &StatusError{Service: service, StatusCode: status}
	}

	body := pool.GetByteBuffer()
	defer pool.PutByteBuffer(body)
	body = append(body, resp.Body()...)

	if err := sonic.ConfigFastest.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s response decode failed: %w", service, err)
	}
	return nil
}

func (h *HTTPClient) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		client.CloseIdleConnections()
	}
}
