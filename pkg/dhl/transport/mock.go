package transport

import (
	"context"
	"sync"
)

// MockClient is an in-memory transport for tests. Requests are
// captured for inspection; responses come from the OnSend hook, a
// queued list, or a default empty 200.
type MockClient struct {
	SimulateFailure *Failure

	// OnSend, when set, fully controls the response.
	OnSend func(ctx context.Context, req *Request) (*Response, error)

	mu        sync.Mutex
	queued    []*Response
	Requests  []*Request
}

// NewMockClient creates a mock transport with default behavior.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Queue appends a canned response returned by subsequent Send calls
// in order.
func (m *MockClient) Queue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, resp)
}

// QueueBody is shorthand for queueing a 200 with the given body.
func (m *MockClient) QueueBody(body string) {
	m.Queue(&Response{StatusCode: 200, Body: []byte(body)})
}

// LastRequest returns the most recently captured request, nil if none.
func (m *MockClient) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// Send records the request and plays back the configured response.
func (m *MockClient) Send(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	var next *Response
	if len(m.queued) > 0 {
		next = m.queued[0]
		m.queued = m.queued[1:]
	}
	m.mu.Unlock()

	if m.SimulateFailure != nil {
		return nil, m.SimulateFailure
	}
	if m.OnSend != nil {
		return m.OnSend(ctx, req)
	}
	if next != nil {
		return next, nil
	}
	return &Response{StatusCode: 200}, nil
}

var _ Client = (*MockClient)(nil)
