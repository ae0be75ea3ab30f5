package store

import (
	"context"
	"errors"

	"advisor-service/internal/model"
)

// Sentinel errors handlers translate into HTTP statuses.
var (
	// ErrNotFound means the row is absent or owned by someone else.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness constraint was violated.
	ErrConflict = errors.New("record already exists")
)

// AdvisorStore persists advisor accounts.
type AdvisorStore interface {
	// CreateAdvisor inserts a new advisor. Returns ErrConflict when the
	// email is already registered.
	CreateAdvisor(ctx context.Context, advisor *model.Advisor) error
	// AdvisorByEmail looks an advisor up by (lowercased) email.
	AdvisorByEmail(ctx context.Context, email string) (*model.Advisor, error)
}

// ClientStore persists client records, every operation scoped to the
// owning advisor.
type ClientStore interface {
	// ListClients returns the advisor's clients ordered by name.
	ListClients(ctx context.Context, advisorID uint) ([]model.Client, error)
	// GetClient returns one client with its notes preloaded, notes
	// ordered by meeting date then creation time, both descending.
	GetClient(ctx context.Context, advisorID, clientID uint) (*model.Client, error)
	// CreateClient inserts a client. Returns ErrConflict when the phone
	// number is already used.
	CreateClient(ctx context.Context, client *model.Client) error
	// UpdateClient saves name/email/phone changes to an owned client.
	UpdateClient(ctx context.Context, client *model.Client) error
	// DeleteClient removes an owned client; its notes go with it.
	DeleteClient(ctx context.Context, advisorID, clientID uint) error
	// OwnsClient is the authorization predicate every note operation
	// runs before touching the client's notes.
	OwnsClient(ctx context.Context, advisorID, clientID uint) (bool, error)
}

// NoteStore persists meeting notes. Callers must have established
// client ownership through ClientStore.OwnsClient first.
type NoteStore interface {
	// ListNotes returns the client's notes, meeting date then creation
	// time descending.
	ListNotes(ctx context.Context, clientID uint) ([]model.Note, error)
	// GetNote returns one note; ErrNotFound when absent or attached to
	// a different client.
	GetNote(ctx context.Context, clientID, noteID uint) (*model.Note, error)
	// CreateNote inserts a note. A foreign key violation (client
	// deleted concurrently) surfaces as ErrNotFound.
	CreateNote(ctx context.Context, note *model.Note) error
	// UpdateNote saves changes to a note matched by id and client id.
	UpdateNote(ctx context.Context, note *model.Note) error
	// DeleteNote removes a note matched by id and client id.
	DeleteNote(ctx context.Context, clientID, noteID uint) error
}

// Store bundles all repositories backed by one database.
type Store interface {
	AdvisorStore
	ClientStore
	NoteStore
}
