package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockResponse is a canned response for the MockTransport.
type MockResponse struct {
	Text string
	Err  error
}

// MockTransport is a deterministic Transport for testing.
// It returns canned responses in FIFO order and records all requests.
// When the queue is empty it keeps returning the last response.
type MockTransport struct {
	mu        sync.Mutex
	responses []MockResponse
	last      *MockResponse
	Calls     []GenerationRequest
}

// NewMockTransport creates a MockTransport with the given canned responses.
func NewMockTransport(responses ...MockResponse) *MockTransport {
	return &MockTransport{responses: responses}
}

// Do returns the next canned response.
func (m *MockTransport) Do(_ context.Context, req GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
		m.last = &resp
	case m.last != nil:
		resp = *m.last
	default:
		return "", &TransientError{Err: errors.New("mock: no responses queued")}
	}
	return resp.Text, resp.Err
}

// AddResponse appends a canned response to the queue.
func (m *MockTransport) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Do calls made.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// RecordingSleeper returns a Sleeper that never blocks and appends every
// requested delay to *delays.
func RecordingSleeper(delays *[]time.Duration) Sleeper {
	var mu sync.Mutex
	return func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		*delays = append(*delays, d)
		return nil
	}
}
