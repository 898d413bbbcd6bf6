package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeoutSeconds = 5.0
	DefaultMethod         = "GET"
	DefaultExpectedStatus = 200

	minStatus = 100
	maxStatus = 599
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Endpoint describes a single HTTP probe against a service.
type Endpoint struct {
	Name           string
	Path           string
	Method         string
	ExpectedStatus int
	// MaxResponseMs is nil when the endpoint has no latency bound.
	MaxResponseMs *float64
}

// Service groups endpoints sharing a base URL and request timeout.
type Service struct {
	Name           string
	BaseURL        string
	TimeoutSeconds float64
	Endpoints      []Endpoint
}

// Timeout returns the per-request timeout as a time.Duration.
func (s Service) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds * float64(time.Second))
}

// Config is the root application configuration.
type Config struct {
	Services []Service
}

// EndpointCount returns the number of endpoints across all services.
func (c *Config) EndpointCount() int {
	n := 0
	for _, svc := range c.Services {
		n += len(svc.Endpoints)
	}
	return n
}

// Load reads, decodes, and validates the config file at path.
// Files ending in .yml or .yaml are decoded as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &doc)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)
		if err == nil {
			var extra any
			if dec.Decode(&extra) != io.EOF {
				err = errors.New("unexpected data after the top-level value")
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return FromDocument(doc)
}

// FromDocument validates an already decoded document and builds the Config.
// Any structural problem aborts the whole load.
func FromDocument(doc map[string]any) (*Config, error) {
	raw, ok := doc["services"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: a non-empty services list is required", ErrInvalidConfig)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: services must be a list, got %T", ErrInvalidConfig, raw)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: at least one service must be configured", ErrInvalidConfig)
	}

	cfg := &Config{Services: make([]Service, 0, len(list))}
	for i, item := range list {
		svc, err := parseService(item)
		if err != nil {
			return nil, fmt.Errorf("%w: service[%d]: %w", ErrInvalidConfig, i, err)
		}
		cfg.Services = append(cfg.Services, svc)
	}
	return cfg, nil
}

func parseService(item any) (Service, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return Service{}, fmt.Errorf("must be a mapping, got %T", item)
	}

	f, err := apply(m, serviceRules)
	if err != nil {
		return Service{}, err
	}

	svc := Service{
		Name:           f["name"].String(),
		BaseURL:        strings.TrimRight(f["base_url"].String(), "/"),
		TimeoutSeconds: f["timeout_seconds"].Float(),
	}

	for j, raw := range f["endpoints"].List() {
		ep, err := parseEndpoint(raw)
		if err != nil {
			return Service{}, fmt.Errorf("%q: endpoint[%d]: %w", svc.Name, j, err)
		}
		svc.Endpoints = append(svc.Endpoints, ep)
	}
	return svc, nil
}

func parseEndpoint(item any) (Endpoint, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return Endpoint{}, fmt.Errorf("must be a mapping, got %T", item)
	}

	f, err := apply(m, endpointRules)
	if err != nil {
		return Endpoint{}, err
	}

	status := f["expected_status"].Int()
	if status < minStatus || status > maxStatus {
		return Endpoint{}, fmt.Errorf("expected_status: %d is not an HTTP status code", status)
	}

	method := strings.ToUpper(strings.TrimSpace(f["method"].String()))
	if method == "" {
		method = DefaultMethod
	}

	return Endpoint{
		Name:           f["name"].String(),
		Path:           f["path"].String(),
		Method:         method,
		ExpectedStatus: status,
		MaxResponseMs:  f["max_response_ms"].FloatPtr(),
	}, nil
}
