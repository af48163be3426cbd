package mocks

import (
	"bytes"
	"io"
	"net/http"
)

// MockHTTPClient is a mock implementation of HTTPClient for testing
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
	Calls  []*http.Request
	Bodies [][]byte
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient(doFunc func(req *http.Request) (*http.Response, error)) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: doFunc,
	}
}

// Do executes the mock function and captures the call and its body
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Calls = append(m.Calls, req)
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		req.Body.Close()
		m.Bodies = append(m.Bodies, body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	} else {
		m.Bodies = append(m.Bodies, nil)
	}
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	// Default success response
	return JSONResponse(http.StatusOK, `{"reasonCode":1100,"reason":"Ok"}`), nil
}

// Reset clears captured calls
func (m *MockHTTPClient) Reset() {
	m.Calls = nil
	m.Bodies = nil
}

// JSONResponse builds a response with a JSON body
func JSONResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}
