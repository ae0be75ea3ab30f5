package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"advisor-service/internal/model"
	"advisor-service/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory store.Store used to drive handlers without
// a database. It mirrors the GORM store's contract: sentinel errors,
// ordering, and cascade deletion of notes.
type memStore struct {
	mu sync.Mutex

	advisors map[uint]*model.Advisor
	clients  map[uint]*model.Client
	notes    map[uint]*model.Note

	nextAdvisorID uint
	nextClientID  uint
	nextNoteID    uint
}

func newMemStore() *memStore {
	return &memStore{
		advisors: make(map[uint]*model.Advisor),
		clients:  make(map[uint]*model.Client),
		notes:    make(map[uint]*model.Note),
	}
}

func (s *memStore) CreateAdvisor(_ context.Context, advisor *model.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.advisors {
		if a.Email == advisor.Email {
			return store.ErrConflict
		}
	}
	s.nextAdvisorID++
	advisor.ID = s.nextAdvisorID
	advisor.CreatedAt = time.Now()
	advisor.UpdatedAt = advisor.CreatedAt
	cp := *advisor
	s.advisors[advisor.ID] = &cp
	return nil
}

func (s *memStore) AdvisorByEmail(_ context.Context, email string) (*model.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.advisors {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ListClients(_ context.Context, advisorID uint) ([]model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Client
	for _, c := range s.clients {
		if c.AdvisorID == advisorID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) clientNotes(clientID uint) []model.Note {
	var out []model.Note
	for _, n := range s.notes {
		if n.ClientID == clientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MeetingDate.Equal(out[j].MeetingDate) {
			return out[i].MeetingDate.After(out[j].MeetingDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *memStore) GetClient(_ context.Context, advisorID, clientID uint) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.AdvisorID != advisorID {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Notes = s.clientNotes(clientID)
	return &cp, nil
}

func (s *memStore) CreateClient(_ context.Context, client *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.Phone == client.Phone {
			return store.ErrConflict
		}
	}
	s.nextClientID++
	client.ID = s.nextClientID
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	cp := *client
	s.clients[client.ID] = &cp
	return nil
}

func (s *memStore) UpdateClient(_ context.Context, client *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.Phone == client.Phone && c.ID != client.ID {
			return store.ErrConflict
		}
	}
	existing, ok := s.clients[client.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name = client.Name
	existing.Email = client.Email
	existing.Phone = client.Phone
	existing.UpdatedAt = time.Now()
	client.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *memStore) DeleteClient(_ context.Context, advisorID, clientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.AdvisorID != advisorID {
		return store.ErrNotFound
	}
	delete(s.clients, clientID)
	for id, n := range s.notes {
		if n.ClientID == clientID {
			delete(s.notes, id)
		}
	}
	return nil
}

func (s *memStore) OwnsClient(_ context.Context, advisorID, clientID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	return ok && c.AdvisorID == advisorID, nil
}

func (s *memStore) ListNotes(_ context.Context, clientID uint) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientNotes(clientID), nil
}

func (s *memStore) GetNote(_ context.Context, clientID, noteID uint) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok || n.ClientID != clientID {
		return nil, store.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) CreateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[note.ClientID]; !ok {
		return store.ErrNotFound
	}
	s.nextNoteID++
	note.ID = s.nextNoteID
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	cp := *note
	s.notes[note.ID] = &cp
	return nil
}

func (s *memStore) UpdateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.notes[note.ID]
	if !ok || existing.ClientID != note.ClientID {
		return store.ErrNotFound
	}
	existing.MeetingDate = note.MeetingDate
	existing.Summary = note.Summary
	existing.NextSteps = note.NextSteps
	existing.UpdatedAt = time.Now()
	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *memStore) DeleteNote(_ context.Context, clientID, noteID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok || n.ClientID != clientID {
		return store.ErrNotFound
	}
	delete(s.notes, noteID)
	return nil
}

var _ store.Store = (*memStore)(nil)

// newTestContext builds an echo context carrying an optional JSON body.
func newTestContext(t *testing.T, method string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/", reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

// asAdvisor stamps the context the way AuthMiddleware does.
func asAdvisor(c echo.Context, advisorID uint) {
	c.Set("user_id", advisorID)
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// seedClient inserts a client owned by the given advisor.
func seedClient(t *testing.T, s *memStore, advisorID uint, name, phone string) *model.Client {
	t.Helper()
	client := &model.Client{Name: name, Phone: phone, AdvisorID: advisorID}
	require.NoError(t, s.CreateClient(context.Background(), client))
	return client
}

// seedNote inserts a note for the given client.
func seedNote(t *testing.T, s *memStore, clientID uint, date, summary string) *model.Note {
	t.Helper()
	meetingDate, err := time.Parse(model.MeetingDateFormat, date)
	require.NoError(t, err)
	note := &model.Note{ClientID: clientID, MeetingDate: meetingDate, Summary: summary}
	require.NoError(t, s.CreateNote(context.Background(), note))
	return note
}
