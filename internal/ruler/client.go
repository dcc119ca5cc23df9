package ruler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"sigs.k8s.io/yaml"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

const (
	// TenantHeader scopes a Ruler request to a tenant.
	TenantHeader = "X-Scope-OrgID"

	rulesPath = "api/v1/rules"

	// maxLoggedBody caps how much of a response body ends up in logs and errors.
	maxLoggedBody = 4096
)

// RequestObserver receives the outcome of every request sent to the Ruler.
// statusCode is 0 when no response was received.
type RequestObserver interface {
	ObserveRulerRequest(method string, statusCode int, duration time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithObserver registers an observer for request outcomes.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client propagates rule group changes to the Ruler.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	observer   RequestObserver
}

// NewClient creates a Ruler client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ruler URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ruler URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Push creates or updates group in the tenant's rule namespace.
func (c *Client) Push(ctx context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error {
	body, err := yaml.Marshal(group)
	if err != nil {
		logging.Error("RulerGateway", err, "Failed to encode rule group %s, abort", group.Name)
		return fmt.Errorf("%w %s: %w", ErrEncoding, group.Name, err)
	}

	target := c.rulesURL(namespace)
	logging.Debug("RulerGateway", "Pushing rule group %s for tenant %s to %s", group.Name, tenantID, target)
	logging.Debug("RulerGateway", "Ruler request body is %s", body)

	return c.do(ctx, http.MethodPost, target, tenantID, body)
}

// Remove deletes group from the tenant's rule namespace.
func (c *Client) Remove(ctx context.Context, tenantID, namespace string, group monitoringv1.RuleGroup) error {
	target := c.rulesURL(namespace, group.Name)
	logging.Debug("RulerGateway", "Deleting rule group %s for tenant %s at %s", group.Name, tenantID, target)

	return c.do(ctx, http.MethodDelete, target, tenantID, nil)
}

// rulesURL appends segments to the rules endpoint, each escaped on its own
// so a "/" inside a namespace or group name does not split it.
func (c *Client) rulesURL(segments ...string) string {
	u := c.baseURL.JoinPath(rulesPath)
	path, rawPath := u.Path, u.EscapedPath()
	for _, s := range segments {
		path += "/" + s
		rawPath += "/" + url.PathEscape(s)
	}
	u.Path, u.RawPath = path, rawPath
	return u.String()
}

// do sends one request and validates the response. 202 is the only success.
func (c *Client) do(ctx context.Context, method, target, tenantID string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		logging.Error("RulerGateway", err, "Failed to build ruler request %s %s, abort", method, target)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, target, err)
	}
	req.Header.Set(TenantHeader, tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/yaml")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		logging.Error("RulerGateway", err, "Failed to update ruler, abort")
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, target, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, time.Since(start))

	text, readErr := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	if readErr != nil {
		logging.Error("RulerGateway", readErr, "Failed to receive ruler response body")
	} else {
		logging.Info("RulerGateway", "Received ruler response %d, text %s", resp.StatusCode, text)
	}

	if resp.StatusCode != http.StatusAccepted {
		return &UnexpectedStatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(text),
		}
	}
	return nil
}

func (c *Client) observe(method string, statusCode int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRulerRequest(method, statusCode, d)
	}
}
