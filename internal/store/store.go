// ABOUTME: Store interfaces and data types for promptdeck persistence
// ABOUTME: Defines User, Project, Prompt, Conversation, Message and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that is already taken
var ErrDuplicateEmail = errors.New("email already registered")

// User represents a registered account. Email holds the normalized form
// and is the uniqueness key.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Project is a user-owned workspace grouping prompts and conversations.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnerID returns the owning user, satisfying auth.Owned.
func (p *Project) OwnerID() string { return p.UserID }

// Prompt is a versioned prompt template within a project. Ownership
// derives from the project, so UserID is denormalized onto the prompt to
// keep the authorization check a pure comparison.
type Prompt struct {
	ID        string
	ProjectID string
	UserID    string
	Name      string
	Content   string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID returns the owning user, satisfying auth.Owned.
func (p *Prompt) OwnerID() string { return p.UserID }

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a chat session within a project. UserID is the owner.
type Conversation struct {
	ID        string
	ProjectID string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID returns the owning user, satisfying auth.Owned.
func (c *Conversation) OwnerID() string { return c.UserID }

// Message is a single turn within a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" or "assistant"
	Content        string
	CreatedAt      time.Time
}

// UserStore persists accounts for the auth service.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// ProjectStore persists projects for the project service.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id string) error
}

// PromptStore persists prompts for the project service.
type PromptStore interface {
	CreatePrompt(ctx context.Context, prompt *Prompt) error
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
	ListPromptsByProject(ctx context.Context, projectID string) ([]*Prompt, error)
	UpdatePrompt(ctx context.Context, prompt *Prompt) error
	DeletePrompt(ctx context.Context, id string) error
}

// ConversationStore persists conversations for the chat service.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversationsByProject(ctx context.Context, projectID string) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// MessageStore persists messages for the chat service.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) error
	ListMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error)
}

// Store combines all persistence interfaces. SQLiteStore implements it.
type Store interface {
	UserStore
	ProjectStore
	PromptStore
	ConversationStore
	MessageStore

	Close() error
}
