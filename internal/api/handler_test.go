package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/process-agent/internal/llm/mocks"
	"github.com/povarna/generative-ai-agents/process-agent/internal/models"
	"github.com/povarna/generative-ai-agents/process-agent/internal/processor"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

const testMaxBodyBytes = 1024

func newTestOptions() processor.Options {
	return processor.Options{
		MaxTokens:      256,
		MaxConcurrency: 2,
		Timeout:        2 * time.Second,
	}
}

// setupTestAPI wires the real handler and processor around a mocked model client
func setupTestAPI(t *testing.T, client llm.LLMClient, opts processor.Options) *restful.Container {
	t.Helper()

	logger := zerolog.Nop()
	proc := processor.NewProcessor(client, opts, &logger)
	handler := api.NewHandler(proc, &logger)

	container := restful.NewContainer()
	container.Filter(middleware.RecoverPanic)
	container.Filter(middleware.LimitBody(testMaxBodyBytes))
	api.RegisterRoutes(container, handler)
	api.RegisterOpenAPI(container)

	return container
}

func newMockClient(t *testing.T) *mocks.MockLLMClient {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockLLMClient(ctrl)
	client.EXPECT().ModelID().Return("gemma2:2b").AnyTimes()
	return client
}

func postJSON(container *restful.Container, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)
	return recorder
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var body middleware.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error response %q: %v", recorder.Body.String(), err)
	}
	return body
}

/*
Translate request with a stubbed model: the combined prompt reaches the model
and the generated text comes back under "response".
*/
func TestAPI_Process_HappyPath(t *testing.T) {
	client := newMockClient(t)

	var captured llm.LLMRequest
	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			captured = req
			return &llm.LLMResponse{Content: "Hello world", StopReason: "stop"}, nil
		})

	container := setupTestAPI(t, client, newTestOptions())

	body, err := json.Marshal(models.ProcessRequest{Text: "Привет мир", Prompt: "Переведи на английский"})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	recorder := postJSON(container, "/process", string(body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}

	var response map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response) != 1 || response["response"] != "Hello world" {
		t.Errorf("Expected {\"response\": \"Hello world\"}, got %v", response)
	}

	if captured.Prompt != "Переведи на английский\n\nТекст: Привет мир" {
		t.Errorf("Unexpected prompt sent upstream: %q", captured.Prompt)
	}
	if captured.MaxTokens != 256 {
		t.Errorf("Expected max tokens 256, got %d", captured.MaxTokens)
	}
}

func TestAPI_Process_EmptyFields(t *testing.T) {
	// no InvokeModel expectation: validation must stop the request first
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	recorder := postJSON(container, "/process", `{"text": "", "prompt": ""}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}

	body := decodeErrorBody(t, recorder)
	if body.Error.Kind != middleware.KindInvalidRequest {
		t.Errorf("Expected kind %s, got %s", middleware.KindInvalidRequest, body.Error.Kind)
	}
	if !strings.Contains(body.Error.Message, "text") || !strings.Contains(body.Error.Message, "prompt") {
		t.Errorf("Expected message to name both fields, got %q", body.Error.Message)
	}
}

func TestAPI_Process_MissingFields(t *testing.T) {
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing prompt", body: `{"text": "some text"}`, field: "prompt"},
		{name: "missing text", body: `{"prompt": "summarize"}`, field: "text"},
		{name: "null text", body: `{"text": null, "prompt": "summarize"}`, field: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(container, "/process", tt.body)

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", recorder.Code)
			}
			body := decodeErrorBody(t, recorder)
			if !strings.Contains(body.Error.Message, tt.field) {
				t.Errorf("Expected message to mention %s, got %q", tt.field, body.Error.Message)
			}
		})
	}
}

func TestAPI_Process_MalformedJSON(t *testing.T) {
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	recorder := postJSON(container, "/process", `{"text": "unterminated`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}
	if body := decodeErrorBody(t, recorder); body.Error.Kind != middleware.KindMalformedRequest {
		t.Errorf("Expected kind %s, got %s", middleware.KindMalformedRequest, body.Error.Kind)
	}
}

func TestAPI_Process_BodyTooLarge(t *testing.T) {
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	body, _ := json.Marshal(models.ProcessRequest{
		Text:   strings.Repeat("a", testMaxBodyBytes*2),
		Prompt: "summarize",
	})
	recorder := postJSON(container, "/process", string(body))

	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status 413, got %d", recorder.Code)
	}
	if body := decodeErrorBody(t, recorder); body.Error.Kind != middleware.KindRequestTooLarge {
		t.Errorf("Expected kind %s, got %s", middleware.KindRequestTooLarge, body.Error.Kind)
	}
}

/*
Upstream connection failure surfaces as 502 and the next request is still served.
*/
func TestAPI_Process_UpstreamFailureThenRecovery(t *testing.T) {
	client := newMockClient(t)
	gomock.InOrder(
		client.EXPECT().
			InvokeModel(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")),
		client.EXPECT().
			InvokeModel(gomock.Any(), gomock.Any()).
			Return(&llm.LLMResponse{Content: "back online"}, nil),
	)

	container := setupTestAPI(t, client, newTestOptions())

	recorder := postJSON(container, "/process", `{"text": "t", "prompt": "p"}`)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", recorder.Code)
	}
	body := decodeErrorBody(t, recorder)
	if body.Error.Kind != middleware.KindUpstream {
		t.Errorf("Expected kind %s, got %s", middleware.KindUpstream, body.Error.Kind)
	}
	if !strings.Contains(body.Error.Message, "connection refused") {
		t.Errorf("Expected upstream cause in message, got %q", body.Error.Message)
	}

	recorder = postJSON(container, "/process", `{"text": "t", "prompt": "p"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200 after recovery, got %d", recorder.Code)
	}
	var response models.ProcessResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Response != "back online" {
		t.Errorf("Expected 'back online', got %q", response.Response)
	}
}

func TestAPI_Process_Timeout(t *testing.T) {
	client := newMockClient(t)
	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ llm.LLMRequest) (*llm.LLMResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	opts := newTestOptions()
	opts.Timeout = 20 * time.Millisecond
	container := setupTestAPI(t, client, opts)

	recorder := postJSON(container, "/process", `{"text": "t", "prompt": "p"}`)

	if recorder.Code != http.StatusGatewayTimeout {
		t.Fatalf("Expected status 504, got %d", recorder.Code)
	}
	if body := decodeErrorBody(t, recorder); body.Error.Kind != middleware.KindTimeout {
		t.Errorf("Expected kind %s, got %s", middleware.KindTimeout, body.Error.Kind)
	}
}

func TestAPI_Process_QueryParameters(t *testing.T) {
	client := newMockClient(t)
	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			if req.Prompt != "Summarize\n\nТекст: long story" {
				t.Errorf("Unexpected prompt: %q", req.Prompt)
			}
			return &llm.LLMResponse{Content: "short story"}, nil
		})

	container := setupTestAPI(t, client, newTestOptions())

	query := url.Values{}
	query.Set("text", "long story")
	query.Set("prompt", "Summarize")

	// plain clients send no Content-Type for an empty body
	req := httptest.NewRequest(http.MethodPost, "/process?"+query.Encode(), nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAPI_Process_VersionedAlias(t *testing.T) {
	client := newMockClient(t)
	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "ok"}, nil)

	container := setupTestAPI(t, client, newTestOptions())

	body, _ := json.Marshal(models.ProcessRequest{Text: "t", Prompt: "p"})
	recorder := postJSON(container, "/api/v1/process", string(body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
}

func TestAPI_Health(t *testing.T) {
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var response api.HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
	if response.Model != "gemma2:2b" {
		t.Errorf("Expected model 'gemma2:2b', got '%s'", response.Model)
	}
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	container := setupTestAPI(t, newMockClient(t), newTestOptions())

	req := httptest.NewRequest(http.MethodGet, api.OpenAPIPath, nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "/process") {
		t.Error("Expected /process in the OpenAPI document")
	}
}

func TestAPI_Process_JSONBodyWithoutContentType(t *testing.T) {
	client := newMockClient(t)
	client.EXPECT().
		InvokeModel(gomock.Any(), gomock.Any()).
		Return(&llm.LLMResponse{Content: "b a"}, nil)

	container := setupTestAPI(t, client, newTestOptions())

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"text":"a","prompt":"b"}`))
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}

	var response models.ProcessResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Response != "b a" {
		t.Errorf("Expected response 'b a', got %q", response.Response)
	}
}

func TestAPI_RouterErrorsUseErrorShape(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantKind    string
	}{
		{
			name:        "plain text body",
			method:      http.MethodPost,
			path:        "/process",
			contentType: "text/plain",
			body:        "hello",
			wantStatus:  http.StatusUnsupportedMediaType,
			wantKind:    middleware.KindUnsupportedMedia,
		},
		{
			name:        "form body",
			method:      http.MethodPost,
			path:        "/process",
			contentType: "application/x-www-form-urlencoded",
			body:        "text=a&prompt=b",
			wantStatus:  http.StatusUnsupportedMediaType,
			wantKind:    middleware.KindUnsupportedMedia,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			path:       "/process",
			wantStatus: http.StatusMethodNotAllowed,
			wantKind:   middleware.KindMethodNotAllowed,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/summarize",
			wantStatus: http.StatusNotFound,
			wantKind:   middleware.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the model must never be reached
			container := setupTestAPI(t, newMockClient(t), newTestOptions())

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			recorder := httptest.NewRecorder()
			container.ServeHTTP(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatus, recorder.Code, recorder.Body.String())
			}
			if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Expected JSON content type, got %q", ct)
			}
			body := decodeErrorBody(t, recorder)
			if body.Error.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, body.Error.Kind)
			}
			if body.Error.Message == "" {
				t.Error("Expected a message")
			}
		})
	}
}
