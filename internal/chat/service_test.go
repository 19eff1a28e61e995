// ABOUTME: Tests for the chat service HTTP handlers with a fake LLM provider
// ABOUTME: Conversation CRUD, ownership isolation, and full message turns

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/2389/promptdeck/internal/auth"
	"github.com/2389/promptdeck/internal/llm"
	"github.com/2389/promptdeck/internal/store"
)

// fakeProvider echoes the last user message, or fails when scripted to.
type fakeProvider struct {
	fail     bool
	lastSeen []llm.Message
}

func (p *fakeProvider) SendMessage(ctx context.Context, messages []llm.Message) (string, error) {
	if p.fail {
		return "", errors.New("provider exploded")
	}
	p.lastSeen = messages
	last := messages[len(messages)-1]
	return fmt.Sprintf("echo: %s", last.Content), nil
}

func newTestMux(t *testing.T, provider llm.Provider) *http.ServeMux {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mux := http.NewServeMux()
	New(s, s, provider, nil).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, mux *http.ServeMux, userID, projectID string) string {
	t.Helper()
	rec := do(t, mux, userID, http.MethodPost, "/conversations?project_id="+projectID, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create conversation: status = %d; body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp.ID
}

func TestCreateConversation(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	convID := createConversation(t, mux, "user-1", "proj-1")

	rec := do(t, mux, "user-1", http.MethodGet, "/conversations/"+convID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var conv struct {
		ProjectID string `json:"project_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &conv)
	if conv.ProjectID != "proj-1" {
		t.Errorf("project_id = %q, want proj-1", conv.ProjectID)
	}
}

func TestCreateConversation_RequiresProjectID(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	rec := do(t, mux, "user-1", http.MethodPost, "/conversations", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConversation_OwnershipMismatchIs404(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	convID := createConversation(t, mux, "user-1", "proj-1")

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/conversations/" + convID, nil},
		{http.MethodDelete, "/conversations/" + convID, nil},
		{http.MethodGet, "/conversations/" + convID + "/messages", nil},
		{http.MethodPost, "/conversations/" + convID + "/messages", map[string]string{"content": "hi"}},
	}

	for _, tt := range tests {
		rec := do(t, mux, "user-2", tt.method, tt.path, tt.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tt.method, tt.path, rec.Code)
		}
		var resp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Error != "conversation not found" {
			t.Errorf("%s %s: error = %q, want %q", tt.method, tt.path, resp.Error, "conversation not found")
		}
	}
}

func TestDeleteConversation(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	convID := createConversation(t, mux, "user-1", "proj-1")

	rec := do(t, mux, "user-1", http.MethodDelete, "/conversations/"+convID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = do(t, mux, "user-1", http.MethodGet, "/conversations/"+convID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestListByProject_FiltersToCaller(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	mine := createConversation(t, mux, "user-1", "proj-1")
	createConversation(t, mux, "user-2", "proj-1")

	rec := do(t, mux, "user-1", http.MethodGet, "/projects/proj-1/conversations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var convs []struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &convs)
	if len(convs) != 1 || convs[0].ID != mine {
		t.Errorf("convs = %v, want just %s", convs, mine)
	}
}

func TestSendMessage(t *testing.T) {
	provider := &fakeProvider{}
	mux := newTestMux(t, provider)

	convID := createConversation(t, mux, "user-1", "proj-1")

	rec := do(t, mux, "user-1", http.MethodPost, "/conversations/"+convID+"/messages",
		map[string]string{"content": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: status = %d; body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		MessageID string `json:"message_id"`
		Response  string `json:"response"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "echo: hello" {
		t.Errorf("response = %q, want echo: hello", resp.Response)
	}
	if resp.MessageID == "" {
		t.Error("message_id is empty")
	}

	// Both turns persisted in order
	rec = do(t, mux, "user-1", http.MethodGet, "/conversations/"+convID+"/messages", nil)
	var msgs []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != store.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != store.RoleAssistant || msgs[1].Content != "echo: hello" {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestSendMessage_SendsFullHistory(t *testing.T) {
	provider := &fakeProvider{}
	mux := newTestMux(t, provider)

	convID := createConversation(t, mux, "user-1", "proj-1")

	for _, content := range []string{"first", "second"} {
		rec := do(t, mux, "user-1", http.MethodPost, "/conversations/"+convID+"/messages",
			map[string]string{"content": content})
		if rec.Code != http.StatusOK {
			t.Fatalf("send %q: status = %d", content, rec.Code)
		}
	}

	// Second turn carries user+assistant+user history
	if len(provider.lastSeen) != 3 {
		t.Fatalf("provider saw %d messages, want 3", len(provider.lastSeen))
	}
	if provider.lastSeen[2].Content != "second" {
		t.Errorf("last message = %q, want second", provider.lastSeen[2].Content)
	}
}

func TestSendMessage_ProviderFailure(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{fail: true})

	convID := createConversation(t, mux, "user-1", "proj-1")

	rec := do(t, mux, "user-1", http.MethodPost, "/conversations/"+convID+"/messages",
		map[string]string{"content": "hello"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "error communicating with LLM service" {
		t.Errorf("error = %q", resp.Error)
	}

	// The user message was persisted before the provider call and stays
	rec = do(t, mux, "user-1", http.MethodGet, "/conversations/"+convID+"/messages", nil)
	var msgs []struct {
		Role string `json:"role"`
	}
	json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 1 || msgs[0].Role != store.RoleUser {
		t.Errorf("messages after failed turn = %v, want single user message", msgs)
	}
}

func TestSendMessage_RequiresContent(t *testing.T) {
	mux := newTestMux(t, &fakeProvider{})

	convID := createConversation(t, mux, "user-1", "proj-1")

	rec := do(t, mux, "user-1", http.MethodPost, "/conversations/"+convID+"/messages",
		map[string]string{"content": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
