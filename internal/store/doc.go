// Package store provides persistent storage for promptdeck using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with one
// interface per aggregate:
//
//   - UserStore: accounts for the auth service
//   - ProjectStore, PromptStore: project service persistence
//   - ConversationStore, MessageStore: chat service persistence
//
// SQLiteStore implements all interfaces in a single struct; each service
// binary opens its own database file and depends only on the interfaces it
// uses.
//
// # Ownership
//
// Every owned resource (Project, Prompt, Conversation) records its owning
// user and implements auth.Owned via OwnerID, so handlers can run the
// ownership check as a pure comparison without another query. Prompts
// denormalize the project owner for the same reason.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateEmail: email already bound to an account
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore(":memory:") or a temp-dir path for tests with real
// SQLite.
package store
