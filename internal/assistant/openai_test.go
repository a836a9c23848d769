package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iksnae/databricks-chatbot/internal/chatstore"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
"choices":[{"index":0,"message":{"role":"assistant","content":"Use a SQL warehouse."},"finish_reason":"stop"}]}`

func TestOpenAIClient_Complete(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, okBody, &got)
	c := NewOpenAIClient("sk-test", srv.URL+"/v1")

	reply, err := c.Complete(context.Background(), Request{
		Model:        "gpt-3.5-turbo",
		Temperature:  0.7,
		SystemPrompt: "be brief",
		History: []chatstore.Message{
			{Role: chatstore.RoleUser, Content: "hi"},
			{Role: chatstore.RoleAssistant, Content: "hello"},
		},
		Input: "How do I query Delta tables?",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Use a SQL warehouse." {
		t.Errorf("reply = %q", reply)
	}

	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(got.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(got.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if got.Messages[i].Role != role {
			t.Errorf("messages[%d].role = %s, want %s", i, got.Messages[i].Role, role)
		}
	}
	if got.Messages[3].Content != "How do I query Delta tables?" {
		t.Errorf("last message = %q", got.Messages[3].Content)
	}
	if got.Model != "gpt-3.5-turbo" || got.Temperature != 0.7 {
		t.Errorf("model/temperature = %s/%v", got.Model, got.Temperature)
	}
}

func TestOpenAIClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			want:   KindRateLimited,
		},
		{
			name:   "bad key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			want:   KindAuth,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"internal","type":"server_error"}}`,
			want:   KindProvider,
		},
		{
			name:   "empty choices",
			status: http.StatusOK,
			body:   `{"id":"x","object":"chat.completion","choices":[]}`,
			want:   KindProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body, nil)
			c := NewOpenAIClient("sk-test", srv.URL+"/v1")
			_, err := c.Complete(context.Background(), Request{Model: "m", Temperature: 0.5, Input: "q"})
			if !IsKind(err, tt.want) {
				t.Errorf("Complete() error = %v, want kind %s", err, tt.want)
			}
		})
	}
}

func TestOpenAIClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient("sk-test", url+"/v1")
	_, err := c.Complete(context.Background(), Request{Model: "m", Temperature: 0.5, Input: "q"})
	if !IsKind(err, KindConnection) {
		t.Errorf("Complete() error = %v, want kind %s", err, KindConnection)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid", req: Request{Model: "m", Temperature: 0.7, Input: "q"}},
		{name: "zero temperature", req: Request{Model: "m", Temperature: 0, Input: "q"}},
		{name: "max temperature", req: Request{Model: "m", Temperature: 1, Input: "q"}},
		{name: "empty input", req: Request{Model: "m", Input: "  "}, wantErr: true},
		{name: "no model", req: Request{Input: "q"}, wantErr: true},
		{name: "temperature too high", req: Request{Model: "m", Temperature: 1.5, Input: "q"}, wantErr: true},
		{name: "negative temperature", req: Request{Model: "m", Temperature: -0.1, Input: "q"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsKind(err, KindValidation) {
				t.Errorf("Validate() error kind = %v, want validation", err)
			}
		})
	}
}
