package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"advisor-service/internal/middleware"
	"advisor-service/internal/model"
	"advisor-service/internal/store"
	"advisor-service/pkg/logger"
	"advisor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NoteRequest defines the structure for note creation/update requests
type NoteRequest struct {
	MeetingDate string `json:"meetingDate"`
	Summary     string `json:"summary"`
	NextSteps   string `json:"nextSteps"`
}

// noteResponse is the wire shape for meeting notes. Dates go out as
// YYYY-MM-DD strings.
type noteResponse struct {
	NoteID    uint       `json:"noteId"`
	Date      string     `json:"date"`
	Summary   string     `json:"summary"`
	NextSteps string     `json:"nextSteps"`
	ClientID  uint       `json:"clientId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func newNoteSummary(n *model.Note) noteResponse {
	return noteResponse{
		NoteID:    n.ID,
		Date:      n.MeetingDate.Format(model.MeetingDateFormat),
		Summary:   n.Summary,
		NextSteps: n.NextSteps,
	}
}

func newNoteDetail(n *model.Note) noteResponse {
	resp := newNoteSummary(n)
	resp.ClientID = n.ClientID
	resp.CreatedAt = &n.CreatedAt
	resp.UpdatedAt = &n.UpdatedAt
	return resp
}

// NoteHandler serves CRUD over meeting notes nested under a client.
// Every operation first proves the client belongs to the authenticated
// advisor; a client that doesn't is reported as absent.
type NoteHandler struct {
	clients store.ClientStore
	notes   store.NoteStore
}

// NewNoteHandler creates the note handler backed by the given stores.
func NewNoteHandler(clients store.ClientStore, notes store.NoteStore) *NoteHandler {
	return &NoteHandler{clients: clients, notes: notes}
}

// requireClient parses the client id and runs the ownership predicate.
// The returned bool tells the caller whether to continue; the error is
// the already-written response.
func (h *NoteHandler) requireClient(c echo.Context) (uint, bool, error) {
	log := logger.FromContext(c)

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		return 0, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	clientID, err := parseID(c, "id")
	if err != nil {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Client ID format"})
	}

	owns, err := h.clients.OwnsClient(c.Request().Context(), advisorID, clientID)
	if err != nil {
		log.Error("Ownership check failed", zap.Uint("client_id", clientID), zap.Error(err))
		return 0, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to verify client"})
	}
	if !owns {
		log.Warn("Client not owned by advisor", zap.Uint("client_id", clientID), zap.Uint("advisor_id", advisorID))
		return 0, false, c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
	}

	return clientID, true, nil
}

// validate checks a note request and parses the meeting date.
func (req *NoteRequest) validate(c echo.Context) (time.Time, bool, error) {
	req.Summary = strings.TrimSpace(req.Summary)
	req.NextSteps = strings.TrimSpace(req.NextSteps)

	if req.MeetingDate == "" {
		return time.Time{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Meeting Date is required"})
	}
	if req.Summary == "" && req.NextSteps == "" {
		return time.Time{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Either Summary or Next Steps must be provided"})
	}

	meetingDate, err := time.Parse(model.MeetingDateFormat, req.MeetingDate)
	if err != nil {
		return time.Time{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "Meeting Date must be in YYYY-MM-DD format"})
	}
	return meetingDate, true, nil
}

// ListNotes returns all notes for an owned client, most recent meeting
// first
func (h *NoteHandler) ListNotes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("list")

	clientID, ok, err := h.requireClient(c)
	if !ok {
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes, err := h.notes.ListNotes(c.Request().Context(), clientID)
	if err != nil {
		log.Error("Failed to list notes", zap.Uint("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve notes"})
	}

	responses := make([]noteResponse, 0, len(notes))
	for i := range notes {
		responses = append(responses, newNoteSummary(&notes[i]))
	}

	log.Info("Notes retrieved", zap.Uint("client_id", clientID), zap.Int("count", len(responses)))
	return c.JSON(http.StatusOK, responses)
}

// GetNote returns a single note belonging to an owned client
func (h *NoteHandler) GetNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("get")

	clientID, ok, err := h.requireClient(c)
	if !ok {
		return err
	}

	noteID, err := parseID(c, "noteId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Note ID format"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	note, err := h.notes.GetNote(c.Request().Context(), clientID, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Note not found", zap.Uint("note_id", noteID), zap.Uint("client_id", clientID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found for this client"})
		}
		log.Error("Failed to fetch note", zap.Uint("note_id", noteID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve note"})
	}

	return c.JSON(http.StatusOK, newNoteDetail(note))
}

// CreateNote adds a note to an owned client
func (h *NoteHandler) CreateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("create")

	clientID, ok, err := h.requireClient(c)
	if !ok {
		return err
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	meetingDate, ok, err := req.validate(c)
	if !ok {
		return err
	}

	note := model.Note{
		ClientID:    clientID,
		MeetingDate: meetingDate,
		Summary:     req.Summary,
		NextSteps:   req.NextSteps,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.notes.CreateNote(c.Request().Context(), &note); err != nil {
		// Client deleted between the ownership check and the insert
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Client vanished before note insert", zap.Uint("client_id", clientID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found. Cannot add note."})
		}
		log.Error("Failed to create note", zap.Uint("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
	}

	log.Info("Note created", zap.Uint("note_id", note.ID), zap.Uint("client_id", clientID))
	return c.JSON(http.StatusCreated, newNoteDetail(&note))
}

// UpdateNote updates a note belonging to an owned client
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("update")

	clientID, ok, err := h.requireClient(c)
	if !ok {
		return err
	}

	noteID, err := parseID(c, "noteId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Note ID format"})
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	meetingDate, ok, err := req.validate(c)
	if !ok {
		return err
	}

	note := model.Note{
		ID:          noteID,
		ClientID:    clientID,
		MeetingDate: meetingDate,
		Summary:     req.Summary,
		NextSteps:   req.NextSteps,
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.notes.UpdateNote(c.Request().Context(), &note); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Note not found for update", zap.Uint("note_id", noteID), zap.Uint("client_id", clientID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found for this client"})
		}
		log.Error("Failed to update note", zap.Uint("note_id", noteID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update note"})
	}

	log.Info("Note updated", zap.Uint("note_id", noteID), zap.Uint("client_id", clientID))
	return c.JSON(http.StatusOK, newNoteDetail(&note))
}

// DeleteNote removes a note belonging to an owned client
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("delete")

	clientID, ok, err := h.requireClient(c)
	if !ok {
		return err
	}

	noteID, err := parseID(c, "noteId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Note ID format"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.notes.DeleteNote(c.Request().Context(), clientID, noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Note not found for deletion", zap.Uint("note_id", noteID), zap.Uint("client_id", clientID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found for this client"})
		}
		log.Error("Failed to delete note", zap.Uint("note_id", noteID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete note"})
	}

	log.Info("Note deleted", zap.Uint("note_id", noteID), zap.Uint("client_id", clientID))
	return c.NoContent(http.StatusNoContent)
}
