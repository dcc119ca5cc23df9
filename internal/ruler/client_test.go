package ruler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"
)

// recordedRequest is what the fake Ruler saw.
type recordedRequest struct {
	Method      string
	Path        string
	Tenant      string
	ContentType string
	Body        []byte
}

// fakeRuler is an httptest server answering every request with a fixed status.
type fakeRuler struct {
	mu       sync.Mutex
	status   int
	requests []recordedRequest
	server   *httptest.Server
}

func newFakeRuler(t *testing.T, status int) *fakeRuler {
	t.Helper()
	f := &fakeRuler{status: status}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			Tenant:      r.Header.Get(TenantHeader),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		f.mu.Unlock()
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte("ruler says hi"))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRuler) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

type countingObserver struct {
	mu    sync.Mutex
	codes []int
}

func (o *countingObserver) ObserveRulerRequest(_ string, statusCode int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes = append(o.codes, statusCode)
}

func latencyGroup() monitoringv1.RuleGroup {
	forDuration := monitoringv1.Duration("10m")
	return monitoringv1.RuleGroup{
		Name: "latency_p99",
		Rules: []monitoringv1.Rule{{
			Alert: "HighLatency",
			Expr:  intstr.FromString("histogram_quantile(0.99, rate(http_request_duration_seconds_bucket[5m])) > 1"),
			For:   &forDuration,
		}},
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "ruler:8080", "://bad", "/relative/path"} {
		_, err := NewClient(u)
		assert.Error(t, err, "expected error for %q", u)
	}
}

func TestPush_SendsTenantScopedYAML(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	observer := &countingObserver{}
	c, err := NewClient(ruler.server.URL, WithObserver(observer))
	require.NoError(t, err)

	err = c.Push(context.Background(), "team-a", "monitoring", latencyGroup())
	require.NoError(t, err)

	reqs := ruler.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/v1/rules/monitoring", reqs[0].Path)
	assert.Equal(t, "team-a", reqs[0].Tenant)
	assert.Equal(t, "application/yaml", reqs[0].ContentType)

	var decoded monitoringv1.RuleGroup
	require.NoError(t, yaml.Unmarshal(reqs[0].Body, &decoded))
	assert.Equal(t, latencyGroup(), decoded)

	assert.Equal(t, []int{http.StatusAccepted}, observer.codes)
}

func TestPush_BaseURLWithTrailingSlashAndPrefix(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	c, err := NewClient(ruler.server.URL + "/prometheus/")
	require.NoError(t, err)

	require.NoError(t, c.Push(context.Background(), "team-a", "monitoring", latencyGroup()))

	reqs := ruler.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/prometheus/api/v1/rules/monitoring", reqs[0].Path)
}

func TestRemove_DeletesNamedGroup(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	c, err := NewClient(ruler.server.URL)
	require.NoError(t, err)

	require.NoError(t, c.Remove(context.Background(), "team-b", "monitoring", latencyGroup()))

	reqs := ruler.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/api/v1/rules/monitoring/latency_p99", reqs[0].Path)
	assert.Equal(t, "team-b", reqs[0].Tenant)
	assert.Empty(t, reqs[0].Body)
}

func TestRemove_EscapesSlashInGroupName(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	c, err := NewClient(ruler.server.URL + "/prometheus/")
	require.NoError(t, err)

	group := latencyGroup()
	group.Name = "team-a/latency p99"
	require.NoError(t, c.Remove(context.Background(), "team-a", "monitoring", group))

	reqs := ruler.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/prometheus/api/v1/rules/monitoring/team-a%2Flatency%20p99", reqs[0].Path)
}

func TestOnlyAcceptedIsSuccess(t *testing.T) {
	statuses := []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusNoContent,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			ruler := newFakeRuler(t, status)
			c, err := NewClient(ruler.server.URL)
			require.NoError(t, err)

			for name, call := range map[string]func() error{
				"push":   func() error { return c.Push(context.Background(), "team-a", "ns", latencyGroup()) },
				"remove": func() error { return c.Remove(context.Background(), "team-a", "ns", latencyGroup()) },
			} {
				err := call()
				require.Error(t, err, name)
				assert.True(t, IsUnexpectedStatus(err), "%s: expected unexpected status error, got %v", name, err)

				var statusErr *UnexpectedStatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, status, statusErr.StatusCode)
				if status != http.StatusNoContent {
					assert.Equal(t, "ruler says hi", statusErr.Body)
				}
			}
		})
	}
}

func TestPush_TransportFailure(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	observer := &countingObserver{}
	c, err := NewClient(ruler.server.URL, WithObserver(observer))
	require.NoError(t, err)
	ruler.server.Close()

	err = c.Push(context.Background(), "team-a", "monitoring", latencyGroup())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsUnexpectedStatus(err))
	assert.Equal(t, []int{0}, observer.codes)
}

func TestPush_CancelledContext(t *testing.T) {
	ruler := newFakeRuler(t, http.StatusAccepted)
	c, err := NewClient(ruler.server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Push(ctx, "team-a", "monitoring", latencyGroup())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Empty(t, ruler.recorded())
}

func TestUnexpectedStatusError_Wrapped(t *testing.T) {
	inner := &UnexpectedStatusError{Method: http.MethodPost, URL: "http://ruler", StatusCode: 500}
	wrapped := errors.Join(errors.New("other"), inner)

	assert.True(t, IsUnexpectedStatus(wrapped))
	assert.False(t, IsUnexpectedStatus(errors.New("plain")))
	assert.Contains(t, inner.Error(), "status 500")
}
