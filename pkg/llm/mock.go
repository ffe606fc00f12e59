package llm

import "context"

// MockClient is a configurable mock for testing LLM-backed components.
// Set the function fields to control behavior in tests.
type MockClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns empty string and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float32) (string, error)

	// GenerateVisionResponseFunc is called when GenerateVisionResponse is invoked.
	// If nil, returns empty string and nil error.
	GenerateVisionResponseFunc func(ctx context.Context, req VisionRequest) (string, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification
	GenerateResponseCalls       int
	GenerateVisionResponseCalls int
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// GenerateResponse implements Client.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float32) (string, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// GenerateVisionResponse implements Client.
func (m *MockClient) GenerateVisionResponse(ctx context.Context, req VisionRequest) (string, error) {
	m.GenerateVisionResponseCalls++
	if m.GenerateVisionResponseFunc != nil {
		return m.GenerateVisionResponseFunc(ctx, req)
	}
	return "", nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Provider implements Client.
func (m *MockClient) Provider() string {
	return "mock"
}

// Reset clears call tracking counters.
func (m *MockClient) Reset() {
	m.GenerateResponseCalls = 0
	m.GenerateVisionResponseCalls = 0
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
