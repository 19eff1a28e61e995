// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers user, project, prompt, conversation, and message persistence

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func testTime() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	user := &User{
		ID:           "user-123",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		CreatedAt:    testTime(),
	}

	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUser(ctx, "user-123")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("Email mismatch: got %q, want %q", got.Email, user.Email)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash mismatch: got %q, want %q", got.PasswordHash, user.PasswordHash)
	}
	if !got.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	user := &User{
		ID:           "user-123",
		Email:        "test@example.com",
		PasswordHash: "hash",
		CreatedAt:    testTime(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Lookup must succeed regardless of case in either part
	for _, email := range []string{"test@example.com", "Test@example.com", "TEST@EXAMPLE.COM"} {
		got, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			t.Errorf("GetUserByEmail(%q) failed: %v", email, err)
			continue
		}
		if got.ID != "user-123" {
			t.Errorf("GetUserByEmail(%q) = %q, want user-123", email, got.ID)
		}
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	user := &User{ID: "user-1", Email: "alice@example.com", PasswordHash: "h", CreatedAt: testTime()}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := &User{ID: "user-2", Email: "alice@example.com", PasswordHash: "h", CreatedAt: testTime()}
	if err := store.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("CreateUser duplicate error = %v, want ErrDuplicateEmail", err)
	}

	// Case variants collide too
	dupCase := &User{ID: "user-3", Email: "Alice@Example.com", PasswordHash: "h", CreatedAt: testTime()}
	if err := store.CreateUser(ctx, dupCase); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("CreateUser case-variant duplicate error = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	if _, err := store.GetUser(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUserByEmail(ctx, "nope@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail error = %v, want ErrNotFound", err)
	}
}

func TestProjectCRUD(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	project := &Project{
		ID:          "proj-1",
		UserID:      "user-1",
		Name:        "My Project",
		Description: "a workspace",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	got, err := store.GetProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "My Project" || got.Description != "a workspace" || got.UserID != "user-1" {
		t.Errorf("GetProject = %+v, want original fields", got)
	}

	got.Name = "Renamed"
	got.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdateProject(ctx, got); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	got, err = store.GetProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("GetProject after update failed: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now.Add(time.Minute))
	}

	if err := store.DeleteProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := store.GetProject(ctx, "proj-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject after delete error = %v, want ErrNotFound", err)
	}
}

func TestListProjectsByUser(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	for i := 0; i < 3; i++ {
		p := &Project{
			ID:        fmt.Sprintf("proj-%d", i),
			UserID:    "user-1",
			Name:      fmt.Sprintf("Project %d", i),
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			UpdatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}
	}
	other := &Project{ID: "proj-other", UserID: "user-2", Name: "Other", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateProject(ctx, other); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	projects, err := store.ListProjectsByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListProjectsByUser failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("got %d projects, want 3", len(projects))
	}
	// Newest first
	if projects[0].ID != "proj-2" {
		t.Errorf("first project = %q, want proj-2", projects[0].ID)
	}
	for _, p := range projects {
		if p.UserID != "user-1" {
			t.Errorf("project %q belongs to %q, want user-1", p.ID, p.UserID)
		}
	}
}

func TestUpdateProject_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	p := &Project{ID: "nope", Name: "x", UpdatedAt: testTime()}
	if err := store.UpdateProject(ctx, p); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProject error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteProject(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProject error = %v, want ErrNotFound", err)
	}
}

func createTestProject(t *testing.T, store *SQLiteStore, id, userID string) *Project {
	t.Helper()
	now := testTime()
	p := &Project{ID: id, UserID: userID, Name: "Project " + id, CreatedAt: now, UpdatedAt: now}
	if err := store.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return p
}

func TestPromptCRUD(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	createTestProject(t, store, "proj-1", "user-1")

	now := testTime()
	prompt := &Prompt{
		ID:        "prompt-1",
		ProjectID: "proj-1",
		UserID:    "user-1",
		Name:      "greeting",
		Content:   "Say hello to {name}",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreatePrompt(ctx, prompt); err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	got, err := store.GetPrompt(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if got.Content != prompt.Content || got.Version != 1 || got.UserID != "user-1" {
		t.Errorf("GetPrompt = %+v, want original fields", got)
	}

	got.Content = "Say goodbye to {name}"
	got.Version = 2
	got.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdatePrompt(ctx, got); err != nil {
		t.Fatalf("UpdatePrompt failed: %v", err)
	}

	got, err = store.GetPrompt(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("GetPrompt after update failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	if err := store.DeletePrompt(ctx, "prompt-1"); err != nil {
		t.Fatalf("DeletePrompt failed: %v", err)
	}
	if _, err := store.GetPrompt(ctx, "prompt-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPrompt after delete error = %v, want ErrNotFound", err)
	}
}

func TestListPromptsByProject(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	createTestProject(t, store, "proj-1", "user-1")

	now := testTime()
	for i := 0; i < 2; i++ {
		p := &Prompt{
			ID:        fmt.Sprintf("prompt-%d", i),
			ProjectID: "proj-1",
			UserID:    "user-1",
			Name:      fmt.Sprintf("prompt %d", i),
			Content:   "content",
			Version:   1,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			UpdatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreatePrompt(ctx, p); err != nil {
			t.Fatalf("CreatePrompt failed: %v", err)
		}
	}

	prompts, err := store.ListPromptsByProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListPromptsByProject failed: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(prompts))
	}
	// Oldest first
	if prompts[0].ID != "prompt-0" {
		t.Errorf("first prompt = %q, want prompt-0", prompts[0].ID)
	}
}

func TestDeleteProject_CascadesToPrompts(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	createTestProject(t, store, "proj-1", "user-1")

	now := testTime()
	prompt := &Prompt{
		ID: "prompt-1", ProjectID: "proj-1", UserID: "user-1",
		Name: "p", Content: "c", Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreatePrompt(ctx, prompt); err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	if err := store.DeleteProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := store.GetPrompt(ctx, "prompt-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("prompt survived project deletion: %v", err)
	}
}

func TestConversationCRUD(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	conv := &Conversation{
		ID:        "conv-1",
		ProjectID: "proj-1",
		UserID:    "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	got, err := store.GetConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.ProjectID != "proj-1" || got.UserID != "user-1" {
		t.Errorf("GetConversation = %+v, want original fields", got)
	}

	convs, err := store.ListConversationsByProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListConversationsByProject failed: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "conv-1" {
		t.Errorf("ListConversationsByProject = %v, want [conv-1]", convs)
	}

	if err := store.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if _, err := store.GetConversation(ctx, "conv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConversation after delete error = %v, want ErrNotFound", err)
	}
}

func TestMessages_OrderedByCreation(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	conv := &Conversation{ID: "conv-1", ProjectID: "proj-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	// Same-second inserts must keep insertion order
	contents := []string{"hello", "hi there", "how are you?"}
	roles := []string{RoleUser, RoleAssistant, RoleUser}
	for i := range contents {
		msg := &Message{
			ID:             fmt.Sprintf("msg-%d", i),
			ConversationID: "conv-1",
			Role:           roles[i],
			Content:        contents[i],
			CreatedAt:      now,
		}
		if err := store.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	msgs, err := store.ListMessagesByConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ListMessagesByConversation failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Content != contents[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Content, contents[i])
		}
		if msg.Role != roles[i] {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, roles[i])
		}
	}
}

func TestDeleteConversation_CascadesToMessages(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	conv := &Conversation{ID: "conv-1", ProjectID: "proj-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	msg := &Message{ID: "msg-1", ConversationID: "conv-1", Role: RoleUser, Content: "hi", CreatedAt: now}
	if err := store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if err := store.DeleteConversation(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	msgs, err := store.ListMessagesByConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ListMessagesByConversation failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages after conversation delete, want 0", len(msgs))
	}
}

func TestCreateMessage_RejectsUnknownRole(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := testTime()
	conv := &Conversation{ID: "conv-1", ProjectID: "proj-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	msg := &Message{ID: "msg-1", ConversationID: "conv-1", Role: "system", Content: "x", CreatedAt: now}
	if err := store.CreateMessage(ctx, msg); err == nil {
		t.Error("CreateMessage accepted unknown role, want CHECK violation")
	}
}
