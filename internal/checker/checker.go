package checker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazz-dev/apismoke/internal/config"
)

// Engine executes endpoint checks one at a time, in configuration order.
type Engine struct {
	client   *http.Client
	now      func() time.Time
	onResult func(CheckResult)
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock used to measure elapsed time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. Pass nil client to use a fresh http.Client.
// Timeouts are applied per request from the owning service, so the client
// itself should not carry one.
func New(client *http.Client, opts ...Option) *Engine {
	if client == nil {
		client = &http.Client{}
	}
	e := &Engine{
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// SetOnResult sets the callback invoked after each completed check.
func (e *Engine) SetOnResult(fn func(CheckResult)) {
	e.onResult = fn
}

// Run executes every endpoint of every service in order and returns the
// report. A failing check never stops the run.
func (e *Engine) Run(ctx context.Context, services []config.Service) Report {
	rep := Report{Results: []CheckResult{}}
	for _, svc := range services {
		for _, ep := range svc.Endpoints {
			result := e.Check(ctx, svc, ep)
			rep.Summary.Add(result)
			rep.Results = append(rep.Results, result)

			if e.onResult != nil {
				e.onResult(result)
			}
		}
	}

	e.logger.Info("run finished",
		"total", rep.Summary.Total,
		"passed", rep.Summary.Passed,
		"failed", rep.Summary.Failed,
	)
	return rep
}

// Check executes a single endpoint of svc and classifies the outcome.
func (e *Engine) Check(ctx context.Context, svc config.Service, ep config.Endpoint) CheckResult {
	url := svc.BaseURL + ep.Path
	result := CheckResult{
		Service:        svc.Name,
		Endpoint:       ep.Name,
		URL:            url,
		Method:         ep.Method,
		ExpectedStatus: ep.ExpectedStatus,
		MaxResponseMs:  ep.MaxResponseMs,
	}

	start := e.now()
	out := e.dispatch(ctx, ep.Method, url, svc.Timeout())
	result.ResponseMs = float64(e.now().Sub(start)) / float64(time.Millisecond)

	if out.err != nil {
		result.Error = out.err.Error()
		e.logger.Debug("check failed",
			"service", svc.Name,
			"endpoint", ep.Name,
			"url", url,
			"response_ms", result.ResponseMs,
			"error", out.err,
		)
		return result
	}

	status := out.status
	result.StatusCode = &status
	result.StatusOK = status == ep.ExpectedStatus
	result.TimeOK = ep.MaxResponseMs == nil || result.ResponseMs <= *ep.MaxResponseMs
	result.OK = result.StatusOK && result.TimeOK

	e.logger.Debug("check completed",
		"service", svc.Name,
		"endpoint", ep.Name,
		"url", url,
		"status", status,
		"response_ms", result.ResponseMs,
		"ok", result.OK,
	)
	return result
}
