package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientInvoke(t *testing.T) {
	var gotPath string
	var gotReq OpenDescriptorRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(OpenDescriptorResponse{Descriptor: "42"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, nil)

	var resp OpenDescriptorResponse
	err := c.Invoke(context.Background(), OpOpenDescriptor,
		OpenDescriptorRequest{Reference: "/f", Mode: "rw"}, &resp)
	require.NoError(t, err)

	assert.Equal(t, "/v1/op/OpenDescriptor", gotPath)
	assert.Equal(t, "/f", gotReq.Reference)
	assert.Equal(t, "rw", gotReq.Mode)
	assert.Equal(t, "42", resp.Descriptor)
}

func TestHTTPClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no such entry"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, nil)

	err := c.Invoke(context.Background(), OpQueryType,
		QueryTypeRequest{Reference: "/missing"}, &QueryTypeResponse{})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrInvocation)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, OpQueryType, invErr.Op)
	assert.Equal(t, "/missing", invErr.Ref)
	assert.Equal(t, "no such entry", invErr.Message)
}

func TestHTTPClientValidatesBeforeSending(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, nil)

	// Missing required reference.
	err := c.Invoke(context.Background(), OpOpenDescriptor,
		OpenDescriptorRequest{Mode: "r"}, &OpenDescriptorResponse{})
	require.Error(t, err)

	// Unknown mode token.
	err = c.Invoke(context.Background(), OpOpenDescriptor,
		OpenDescriptorRequest{Reference: "/f", Mode: "rwx"}, &OpenDescriptorResponse{})
	require.Error(t, err)

	assert.Zero(t, hits, "invalid requests must never reach the provider")
}

func TestHTTPClientUnreachableHost(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond, nil)

	err := c.Invoke(context.Background(), OpQueryType,
		QueryTypeRequest{Reference: "/f"}, &QueryTypeResponse{})
	assert.ErrorIs(t, err, ErrInvocation)
}

// captureMetrics records invocation observations.
type captureMetrics struct {
	mu   sync.Mutex
	obs  []Op
	errs int
}

func (m *captureMetrics) ObserveInvoke(op Op, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, op)
	if err != nil {
		m.errs++
	}
}

func TestHTTPClientRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(QueryTypeResponse{Kind: "file"})
	}))
	defer srv.Close()

	m := &captureMetrics{}
	c := NewHTTPClient(srv.URL, time.Second, m)

	require.NoError(t, c.Invoke(context.Background(), OpQueryType,
		QueryTypeRequest{Reference: "/f"}, &QueryTypeResponse{}))
	require.Error(t, c.Invoke(context.Background(), OpQueryType,
		QueryTypeRequest{}, &QueryTypeResponse{}))

	assert.Equal(t, []Op{OpQueryType, OpQueryType}, m.obs)
	assert.Equal(t, 1, m.errs)
}
