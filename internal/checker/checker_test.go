package checker_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/apismoke/internal/checker"
	"github.com/hazz-dev/apismoke/internal/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// respondAfter returns a responder that takes latency on the fake clock.
func respondAfter(clock *fakeClock, status int, latency time.Duration) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		clock.Advance(latency)
		return httpmock.NewStringResponse(status, ""), nil
	}
}

func newMockEngine(t *testing.T) (*checker.Engine, *httpmock.MockTransport, *fakeClock) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	clock := newFakeClock()
	e := checker.New(&http.Client{Transport: transport}, checker.WithClock(clock.Now))
	return e, transport, clock
}

func ms(v float64) *float64 {
	return &v
}

func exampleService() config.Service {
	return config.Service{
		Name:           "example",
		BaseURL:        "https://example.test",
		TimeoutSeconds: 5,
		Endpoints: []config.Endpoint{
			{Name: "health", Path: "/health", Method: "GET", ExpectedStatus: 200, MaxResponseMs: ms(500)},
		},
	}
}

func TestCheck_ExampleScenario(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		latency  time.Duration
		statusOK bool
		timeOK   bool
		ok       bool
		verdict  checker.Verdict
	}{
		{"fast and healthy", 200, 120 * time.Millisecond, true, true, true, checker.VerdictOK},
		{"service unavailable", 503, 120 * time.Millisecond, false, true, false, checker.VerdictFail},
		{"too slow", 200, 900 * time.Millisecond, true, false, false, checker.VerdictFail},
		{"exactly at bound", 200, 500 * time.Millisecond, true, true, true, checker.VerdictOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, transport, clock := newMockEngine(t)
			transport.RegisterResponder(http.MethodGet, "https://example.test/health",
				respondAfter(clock, tt.status, tt.latency))

			svc := exampleService()
			r := e.Check(context.Background(), svc, svc.Endpoints[0])

			require.NotNil(t, r.StatusCode)
			assert.Equal(t, tt.status, *r.StatusCode)
			assert.Equal(t, "https://example.test/health", r.URL)
			assert.InDelta(t, float64(tt.latency/time.Millisecond), r.ResponseMs, 0.001)
			assert.Equal(t, tt.statusOK, r.StatusOK, "ok_status")
			assert.Equal(t, tt.timeOK, r.TimeOK, "ok_time")
			assert.Equal(t, tt.ok, r.OK, "ok")
			assert.Equal(t, tt.verdict, r.Verdict())
			assert.Empty(t, r.Error)
		})
	}
}

func TestCheck_NoBoundAlwaysTimeOK(t *testing.T) {
	e, transport, clock := newMockEngine(t)
	transport.RegisterResponder(http.MethodGet, "https://example.test/slow",
		respondAfter(clock, 200, time.Hour))

	svc := exampleService()
	ep := config.Endpoint{Name: "slow", Path: "/slow", Method: "GET", ExpectedStatus: 200}
	r := e.Check(context.Background(), svc, ep)

	assert.True(t, r.TimeOK)
	assert.True(t, r.OK)
	assert.Nil(t, r.MaxResponseMs)
	assert.InDelta(t, float64(time.Hour/time.Millisecond), r.ResponseMs, 0.001)
}

func TestCheck_UnsupportedMethod(t *testing.T) {
	e, transport, _ := newMockEngine(t)

	svc := exampleService()
	ep := config.Endpoint{Name: "update", Path: "/items/1", Method: "PUT", ExpectedStatus: 200}
	r := e.Check(context.Background(), svc, ep)

	assert.Nil(t, r.StatusCode)
	assert.False(t, r.StatusOK)
	assert.False(t, r.TimeOK)
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "unsupported method")
	assert.Equal(t, checker.VerdictError, r.Verdict())
	assert.Zero(t, transport.GetTotalCallCount(), "no request should be sent")
}

func TestCheck_TransportError(t *testing.T) {
	e, transport, clock := newMockEngine(t)
	transport.RegisterResponder(http.MethodGet, "https://example.test/health",
		func(*http.Request) (*http.Response, error) {
			clock.Advance(30 * time.Millisecond)
			return nil, errors.New("connection refused")
		})

	svc := exampleService()
	r := e.Check(context.Background(), svc, svc.Endpoints[0])

	assert.Nil(t, r.StatusCode)
	assert.False(t, r.StatusOK)
	assert.False(t, r.TimeOK)
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "connection refused")
	assert.InDelta(t, 30.0, r.ResponseMs, 0.001, "elapsed time is kept on failure")
}

func TestCheck_Methods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			e, transport, _ := newMockEngine(t)
			var contentType string
			transport.RegisterResponder(method, "https://example.test/ping",
				func(req *http.Request) (*http.Response, error) {
					contentType = req.Header.Get("Content-Type")
					return httpmock.NewStringResponse(204, ""), nil
				})

			svc := exampleService()
			ep := config.Endpoint{Name: "ping", Path: "/ping", Method: method, ExpectedStatus: 204}
			r := e.Check(context.Background(), svc, ep)

			assert.True(t, r.OK, r.Error)
			assert.Equal(t, 1, transport.GetCallCountInfo()[method+" https://example.test/ping"])
			assert.Empty(t, contentType, "requests carry no body and no content type")
		})
	}
}

func TestRun_OrderAndSummary(t *testing.T) {
	e, transport, clock := newMockEngine(t)
	transport.RegisterResponder(http.MethodGet, "https://a.test/one", respondAfter(clock, 200, time.Millisecond))
	transport.RegisterResponder(http.MethodGet, "https://a.test/two", respondAfter(clock, 500, time.Millisecond))
	transport.RegisterResponder(http.MethodGet, "https://b.test/one", respondAfter(clock, 200, time.Millisecond))
	transport.RegisterResponder(http.MethodHead, "https://b.test/two", respondAfter(clock, 200, time.Millisecond))

	services := []config.Service{
		{Name: "a", BaseURL: "https://a.test", TimeoutSeconds: 5, Endpoints: []config.Endpoint{
			{Name: "one", Path: "/one", Method: "GET", ExpectedStatus: 200},
			{Name: "two", Path: "/two", Method: "GET", ExpectedStatus: 200},
		}},
		{Name: "b", BaseURL: "https://b.test", TimeoutSeconds: 5, Endpoints: []config.Endpoint{
			{Name: "one", Path: "/one", Method: "GET", ExpectedStatus: 200},
			{Name: "two", Path: "/two", Method: "HEAD", ExpectedStatus: 200},
		}},
	}

	var seen []string
	e.SetOnResult(func(r checker.CheckResult) {
		seen = append(seen, r.Service+"/"+r.Endpoint)
	})

	rep := e.Run(context.Background(), services)

	assert.Equal(t, checker.Summary{Total: 4, Passed: 3, Failed: 1}, rep.Summary)
	assert.True(t, rep.Failed())
	require.Len(t, rep.Results, 4)
	assert.Equal(t, []string{"a/one", "a/two", "b/one", "b/two"}, seen)
	for i, r := range rep.Results {
		assert.Equal(t, seen[i], r.Service+"/"+r.Endpoint)
		assert.Equal(t, r.StatusOK && r.TimeOK, r.OK)
	}
	assert.False(t, rep.Results[1].OK)
}

func TestRun_FailureDoesNotStopRun(t *testing.T) {
	e, transport, clock := newMockEngine(t)
	transport.RegisterResponder(http.MethodGet, "https://example.test/after",
		respondAfter(clock, 200, time.Millisecond))

	services := []config.Service{
		{Name: "first", BaseURL: "https://example.test", TimeoutSeconds: 5, Endpoints: []config.Endpoint{
			{Name: "update", Path: "/items/1", Method: "PUT", ExpectedStatus: 200},
			{Name: "unreachable", Path: "/nowhere", Method: "GET", ExpectedStatus: 200},
		}},
		{Name: "second", BaseURL: "https://example.test", TimeoutSeconds: 5, Endpoints: []config.Endpoint{
			{Name: "after", Path: "/after", Method: "GET", ExpectedStatus: 200},
		}},
	}

	rep := e.Run(context.Background(), services)

	assert.Equal(t, checker.Summary{Total: 3, Passed: 1, Failed: 2}, rep.Summary)
	require.Len(t, rep.Results, 3)
	assert.Nil(t, rep.Results[0].StatusCode)
	assert.NotEmpty(t, rep.Results[0].Error)
	assert.Nil(t, rep.Results[1].StatusCode, "unregistered responder is a transport failure")
	assert.True(t, rep.Results[2].OK)
}

func TestRun_EmptyServices(t *testing.T) {
	e, _, _ := newMockEngine(t)
	rep := e.Run(context.Background(), nil)
	assert.Equal(t, checker.Summary{}, rep.Summary)
	assert.NotNil(t, rep.Results)
	assert.False(t, rep.Failed())
}

func TestSupported(t *testing.T) {
	assert.True(t, checker.Supported("GET"))
	assert.True(t, checker.Supported("POST"))
	assert.True(t, checker.Supported("HEAD"))
	assert.False(t, checker.Supported("PUT"))
	assert.False(t, checker.Supported("get"))
}
