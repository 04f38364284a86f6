package geocode

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// newRewriteClient creates an HTTP client that redirects requests starting
// with targetPrefix to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		newURL := t.testServer + origURL[len(t.targetPrefix):]
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(newURL)
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// memCache is an in-memory Cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]Result
	getErr  error
	putErr  error
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]Result)}
}

func (m *memCache) Get(_ context.Context, key string) (*Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *memCache) Put(_ context.Context, key string, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[key] = *r
	return nil
}

// stubClient returns canned results keyed by address.
type stubClient struct {
	results     map[string]*Result
	err         error
	calls       []string
	validateErr error
	validations int
}

func (s *stubClient) Geocode(_ context.Context, address string) (*Result, error) {
	s.calls = append(s.calls, address)
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[address]; ok {
		cp := *r
		return &cp, nil
	}
	return &Result{Status: StatusZeroResults}, nil
}

func (s *stubClient) Validate(context.Context) error {
	s.validations++
	return s.validateErr
}
