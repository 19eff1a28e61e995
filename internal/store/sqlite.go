// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/project/prompt/conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);

		CREATE TABLE IF NOT EXISTS prompts (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			content    TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_prompts_project ON prompts(project_id);

		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id);
		CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content         TEXT NOT NULL,
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateUser inserts a new user. Returns ErrDuplicateEmail if the
// normalized email is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID)
	return nil
}

// GetUserByEmail retrieves a user by normalized email. The comparison is
// case-insensitive across the whole address: normalization already
// lowercases the domain, and treating the local part case-insensitively
// too matches how mail providers behave in practice.
// Returns ErrNotFound if no such user exists.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ? COLLATE NOCASE
	`

	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`

	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var createdAtStr string

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}

// CreateProject inserts a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *Project) error {
	query := `
		INSERT INTO projects (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Description,
		project.CreatedAt.UTC().Format(time.RFC3339),
		project.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	s.logger.Debug("created project", "id", project.ID, "user_id", project.UserID)
	return nil
}

// GetProject retrieves a project by ID.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var project Project
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.Description,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	if err := parseTimes(&project.CreatedAt, &project.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &project, nil
}

// ListProjectsByUser retrieves all projects owned by a user, newest first.
func (s *SQLiteStore) ListProjectsByUser(ctx context.Context, userID string) ([]*Project, error) {
	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var project Project
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(
			&project.ID,
			&project.UserID,
			&project.Name,
			&project.Description,
			&createdAtStr,
			&updatedAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		if err := parseTimes(&project.CreatedAt, &project.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}

	return projects, rows.Err()
}

// UpdateProject updates a project's name and description.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) UpdateProject(ctx context.Context, project *Project) error {
	query := `
		UPDATE projects
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		project.Name,
		project.Description,
		project.UpdatedAt.UTC().Format(time.RFC3339),
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	return checkAffected(result)
}

// DeleteProject removes a project.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return checkAffected(result)
}

// CreatePrompt inserts a new prompt.
func (s *SQLiteStore) CreatePrompt(ctx context.Context, prompt *Prompt) error {
	query := `
		INSERT INTO prompts (id, project_id, user_id, name, content, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		prompt.ID,
		prompt.ProjectID,
		prompt.UserID,
		prompt.Name,
		prompt.Content,
		prompt.Version,
		prompt.CreatedAt.UTC().Format(time.RFC3339),
		prompt.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting prompt: %w", err)
	}

	s.logger.Debug("created prompt", "id", prompt.ID, "project_id", prompt.ProjectID)
	return nil
}

// GetPrompt retrieves a prompt by ID.
// Returns ErrNotFound if the prompt doesn't exist.
func (s *SQLiteStore) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	query := `
		SELECT id, project_id, user_id, name, content, version, created_at, updated_at
		FROM prompts
		WHERE id = ?
	`

	var prompt Prompt
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&prompt.ID,
		&prompt.ProjectID,
		&prompt.UserID,
		&prompt.Name,
		&prompt.Content,
		&prompt.Version,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying prompt: %w", err)
	}

	if err := parseTimes(&prompt.CreatedAt, &prompt.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &prompt, nil
}

// ListPromptsByProject retrieves all prompts in a project, oldest first.
func (s *SQLiteStore) ListPromptsByProject(ctx context.Context, projectID string) ([]*Prompt, error) {
	query := `
		SELECT id, project_id, user_id, name, content, version, created_at, updated_at
		FROM prompts
		WHERE project_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*Prompt
	for rows.Next() {
		var prompt Prompt
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(
			&prompt.ID,
			&prompt.ProjectID,
			&prompt.UserID,
			&prompt.Name,
			&prompt.Content,
			&prompt.Version,
			&createdAtStr,
			&updatedAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning prompt: %w", err)
		}
		if err := parseTimes(&prompt.CreatedAt, &prompt.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}
		prompts = append(prompts, &prompt)
	}

	return prompts, rows.Err()
}

// UpdatePrompt updates a prompt's name, content, and version.
// Returns ErrNotFound if the prompt doesn't exist.
func (s *SQLiteStore) UpdatePrompt(ctx context.Context, prompt *Prompt) error {
	query := `
		UPDATE prompts
		SET name = ?, content = ?, version = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		prompt.Name,
		prompt.Content,
		prompt.Version,
		prompt.UpdatedAt.UTC().Format(time.RFC3339),
		prompt.ID,
	)
	if err != nil {
		return fmt.Errorf("updating prompt: %w", err)
	}

	return checkAffected(result)
}

// DeletePrompt removes a prompt.
// Returns ErrNotFound if the prompt doesn't exist.
func (s *SQLiteStore) DeletePrompt(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting prompt: %w", err)
	}

	return checkAffected(result)
}

// CreateConversation inserts a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	query := `
		INSERT INTO conversations (id, project_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.ProjectID,
		conv.UserID,
		conv.CreatedAt.UTC().Format(time.RFC3339),
		conv.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID, "project_id", conv.ProjectID)
	return nil
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, project_id, user_id, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	var conv Conversation
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&conv.ID,
		&conv.ProjectID,
		&conv.UserID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if err := parseTimes(&conv.CreatedAt, &conv.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}

	return &conv, nil
}

// ListConversationsByProject retrieves all conversations in a project, newest first.
func (s *SQLiteStore) ListConversationsByProject(ctx context.Context, projectID string) ([]*Conversation, error) {
	query := `
		SELECT id, project_id, user_id, created_at, updated_at
		FROM conversations
		WHERE project_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		var conv Conversation
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(
			&conv.ID,
			&conv.ProjectID,
			&conv.UserID,
			&createdAtStr,
			&updatedAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		if err := parseTimes(&conv.CreatedAt, &conv.UpdatedAt, createdAtStr, updatedAtStr); err != nil {
			return nil, err
		}
		convs = append(convs, &conv)
	}

	return convs, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	return checkAffected(result)
}

// CreateMessage inserts a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// ListMessagesByConversation retrieves all messages in a conversation,
// oldest first, preserving the turn order sent to the LLM.
func (s *SQLiteStore) ListMessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var msg Message
		var createdAtStr string
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		msgs = append(msgs, &msg)
	}

	return msgs, rows.Err()
}

// checkAffected maps a no-op write to ErrNotFound.
func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// parseTimes parses a created_at/updated_at pair of RFC3339 strings.
func parseTimes(createdAt, updatedAt *time.Time, createdAtStr, updatedAtStr string) error {
	var err error
	*createdAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	*updatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	return nil
}
