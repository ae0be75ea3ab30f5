package handler

import (
	"errors"
	"net/http"
	"strconv"
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

// ClientRequest defines the structure for client creation/update requests
type ClientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// clientSummary is the row shape returned by list/create/update.
type clientSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func newClientSummary(c *model.Client) clientSummary {
	return clientSummary{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// ClientHandler serves CRUD over the authenticated advisor's clients.
type ClientHandler struct {
	clients store.ClientStore
}

// NewClientHandler creates the client handler backed by the given store.
func NewClientHandler(clients store.ClientStore) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ListClients returns all clients owned by the advisor ordered by name
func (h *ClientHandler) ListClients(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordClientOperation("list")

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		log.Error("Failed to get advisor ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	clients, err := h.clients.ListClients(c.Request().Context(), advisorID)
	if err != nil {
		log.Error("Failed to list clients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve clients"})
	}

	summaries := make([]clientSummary, 0, len(clients))
	for i := range clients {
		summaries = append(summaries, newClientSummary(&clients[i]))
	}

	log.Info("Clients retrieved", zap.Uint("advisor_id", advisorID), zap.Int("count", len(summaries)))
	return c.JSON(http.StatusOK, summaries)
}

// GetClient returns a single owned client with its notes, most recent
// meeting first
func (h *ClientHandler) GetClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordClientOperation("get")

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	clientID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Client ID format"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	client, err := h.clients.GetClient(c.Request().Context(), advisorID, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Client not found", zap.Uint("client_id", clientID), zap.Uint("advisor_id", advisorID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		log.Error("Failed to fetch client", zap.Uint("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve client"})
	}

	notes := make([]noteResponse, 0, len(client.Notes))
	for i := range client.Notes {
		notes = append(notes, newNoteSummary(&client.Notes[i]))
	}

	log.Info("Client retrieved", zap.Uint("client_id", client.ID), zap.Int("note_count", len(notes)))
	return c.JSON(http.StatusOK, echo.Map{
		"id":         client.ID,
		"name":       client.Name,
		"email":      client.Email,
		"phone":      client.Phone,
		"created_at": client.CreatedAt,
		"updated_at": client.UpdatedAt,
		"notes":      notes,
	})
}

// CreateClient creates a new client owned by the advisor
func (h *ClientHandler) CreateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordClientOperation("create")

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Phone == "" {
		log.Warn("Missing client name or phone")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Client Name and Phone Number are required"})
	}

	client := model.Client{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		AdvisorID: advisorID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.clients.CreateClient(c.Request().Context(), &client); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Warn("Duplicate client phone", zap.String("phone", req.Phone))
			return c.JSON(http.StatusConflict, echo.Map{"message": "Phone number already exists for another client."})
		}
		log.Error("Failed to create client", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create client"})
	}

	log.Info("Client created",
		zap.Uint("client_id", client.ID),
		zap.Uint("advisor_id", advisorID),
		zap.String("name", client.Name))
	return c.JSON(http.StatusCreated, newClientSummary(&client))
}

// UpdateClient updates an owned client's name, email and phone
func (h *ClientHandler) UpdateClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordClientOperation("update")

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	clientID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Client ID format"})
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Client Name and Phone Number are required"})
	}

	// Scoped lookup first: a foreign advisor's client is simply absent
	client, err := h.clients.GetClient(c.Request().Context(), advisorID, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Client not found for update", zap.Uint("client_id", clientID), zap.Uint("advisor_id", advisorID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		log.Error("Failed to fetch client for update", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update client"})
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.clients.UpdateClient(c.Request().Context(), client); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Warn("Duplicate client phone on update", zap.String("phone", req.Phone))
			return c.JSON(http.StatusConflict, echo.Map{"message": "Phone number already exists for another client."})
		}
		log.Error("Failed to update client", zap.Uint("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update client"})
	}

	log.Info("Client updated", zap.Uint("client_id", client.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"id":         client.ID,
		"name":       client.Name,
		"email":      client.Email,
		"phone":      client.Phone,
		"updated_at": client.UpdatedAt,
	})
}

// DeleteClient removes an owned client; the database cascade removes
// its notes
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordClientOperation("delete")

	advisorID, ok := middleware.AdvisorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	clientID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Client ID format"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.clients.DeleteClient(c.Request().Context(), advisorID, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Client not found for deletion", zap.Uint("client_id", clientID), zap.Uint("advisor_id", advisorID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		log.Error("Failed to delete client", zap.Uint("client_id", clientID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete client"})
	}

	log.Info("Client deleted", zap.Uint("client_id", clientID), zap.Uint("advisor_id", advisorID))
	return c.NoContent(http.StatusNoContent)
}
