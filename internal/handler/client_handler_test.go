package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clientBody(name, phone, email string) map[string]string {
	return map[string]string{"name": name, "phone": phone, "email": email}
}

func TestListClients_ScopedAndOrdered(t *testing.T) {
	s := newMemStore()
	seedClient(t, s, 1, "Zoe", "555-0002")
	seedClient(t, s, 1, "Bob", "555-0001")
	seedClient(t, s, 2, "Eve", "555-0003")
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	require.NoError(t, h.ListClients(c))

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 2)
	require.Equal(t, "Bob", list[0]["name"])
	require.Equal(t, "Zoe", list[1]["name"])
}

func TestGetClient_CrossTenantIsNotFound(t *testing.T) {
	s := newMemStore()
	client := seedClient(t, s, 1, "Bob", "555-0001")
	h := NewClientHandler(s)

	// Advisor 2 probes advisor 1's client by id
	c, rec := newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetClient(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Client not found", decodeMap(t, rec)["error"])

	// The owner still sees it
	c, rec = newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetClient(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, client.Name, decodeMap(t, rec)["name"])
}

func TestGetClient_IncludesNotesMostRecentFirst(t *testing.T) {
	s := newMemStore()
	client := seedClient(t, s, 1, "Bob", "555-0001")
	seedNote(t, s, client.ID, "2025-01-10", "older meeting")
	seedNote(t, s, client.ID, "2025-03-05", "newer meeting")
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetClient(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	notes, ok := body["notes"].([]interface{})
	require.True(t, ok)
	require.Len(t, notes, 2)
	first := notes[0].(map[string]interface{})
	require.Equal(t, "2025-03-05", first["date"])
	require.Equal(t, "newer meeting", first["summary"])
}

func TestGetClient_InvalidIDFormat(t *testing.T) {
	h := NewClientHandler(newMemStore())

	c, rec := newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.GetClient(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid Client ID format", decodeMap(t, rec)["error"])
}

func TestCreateClient_Validation(t *testing.T) {
	h := NewClientHandler(newMemStore())

	// Missing phone fails regardless of other fields
	c, rec := newTestContext(t, http.MethodPost, clientBody("Bob", "", "bob@x.com"))
	asAdvisor(c, 1)
	require.NoError(t, h.CreateClient(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Client Name and Phone Number are required", decodeMap(t, rec)["message"])

	// Missing name fails too
	c, rec = newTestContext(t, http.MethodPost, clientBody("", "555-0001", ""))
	asAdvisor(c, 1)
	require.NoError(t, h.CreateClient(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateClient_DuplicatePhone(t *testing.T) {
	s := newMemStore()
	seedClient(t, s, 1, "Bob", "555-0001")
	h := NewClientHandler(s)

	// Even another advisor cannot reuse the phone number
	c, rec := newTestContext(t, http.MethodPost, clientBody("Rob", "555-0001", ""))
	asAdvisor(c, 2)
	require.NoError(t, h.CreateClient(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Phone number already exists for another client.", decodeMap(t, rec)["message"])
}

func TestClient_CreateGetUpdateRoundTrip(t *testing.T) {
	s := newMemStore()
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodPost, clientBody("Bob", "555-0001", "bob@x.com"))
	asAdvisor(c, 1)
	require.NoError(t, h.CreateClient(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMap(t, rec)
	require.Equal(t, "Bob", created["name"])
	require.Equal(t, "555-0001", created["phone"])
	require.Equal(t, "bob@x.com", created["email"])

	// Get returns identical fields
	c, rec = newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetClient(c))
	got := decodeMap(t, rec)
	require.Equal(t, created["name"], got["name"])
	require.Equal(t, created["phone"], got["phone"])
	require.Equal(t, created["email"], got["email"])
	createdAt := got["created_at"].(string)

	time.Sleep(10 * time.Millisecond)

	// Update then get reflects new values and a later updated_at
	c, rec = newTestContext(t, http.MethodPut, clientBody("Robert", "555-0009", "rob@x.com"))
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateClient(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(t, http.MethodGet, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetClient(c))
	updated := decodeMap(t, rec)
	require.Equal(t, "Robert", updated["name"])
	require.Equal(t, "555-0009", updated["phone"])
	require.Equal(t, "rob@x.com", updated["email"])

	createdTime, err := time.Parse(time.RFC3339Nano, createdAt)
	require.NoError(t, err)
	updatedTime, err := time.Parse(time.RFC3339Nano, updated["updated_at"].(string))
	require.NoError(t, err)
	require.True(t, updatedTime.After(createdTime))
}

func TestUpdateClient_CrossTenantIsNotFound(t *testing.T) {
	s := newMemStore()
	seedClient(t, s, 1, "Bob", "555-0001")
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodPut, clientBody("Hacked", "555-0099", ""))
	asAdvisor(c, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateClient(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Untouched
	stored, err := s.GetClient(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, "Bob", stored.Name)
}

func TestDeleteClient_CascadesNotes(t *testing.T) {
	s := newMemStore()
	client := seedClient(t, s, 1, "Bob", "555-0001")
	seedNote(t, s, client.ID, "2025-01-10", "meeting")
	seedNote(t, s, client.ID, "2025-02-11", "followup")
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodDelete, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteClient(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// No orphan notes remain
	notes, err := s.ListNotes(context.Background(), client.ID)
	require.NoError(t, err)
	require.Empty(t, notes)

	// Deleting again is 404
	c, rec = newTestContext(t, http.MethodDelete, nil)
	asAdvisor(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteClient(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteClient_CrossTenantIsNotFound(t *testing.T) {
	s := newMemStore()
	seedClient(t, s, 1, "Bob", "555-0001")
	h := NewClientHandler(s)

	c, rec := newTestContext(t, http.MethodDelete, nil)
	asAdvisor(c, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteClient(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Still there for its owner
	owns, err := s.OwnsClient(context.Background(), 1, 1)
	require.NoError(t, err)
	require.True(t, owns)
}
