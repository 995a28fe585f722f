package http

import (
	"net/http"
	"strconv"

	"golang-narrative-engine/internal/api/dto"
	"golang-narrative-engine/internal/api/service"
	"golang-narrative-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

// NarrativeHandler handles HTTP requests for narratives.
type NarrativeHandler struct {
	narrativeService service.NarrativeService
	logger           *logger.Logger
}

// NewNarrativeHandler creates a new NarrativeHandler.
func NewNarrativeHandler(narrativeService service.NarrativeService, logger *logger.Logger) *NarrativeHandler {
	return &NarrativeHandler{narrativeService: narrativeService, logger: logger}
}

// RegisterRoutes registers the narrative routes to the Echo group.
func (h *NarrativeHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListNarratives)
	g.GET("/:id", h.GetNarrative)
}

// ListNarratives returns a paginated narrative list, optionally filtered by
// sentiment and sorted by recency or velocity.
func (h *NarrativeHandler) ListNarratives(c echo.Context) error {
	var req dto.ListNarrativesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid query parameters"})
	}

	if req.Sentiment != "" && req.Sentiment != "bullish" && req.Sentiment != "bearish" && req.Sentiment != "neutral" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid sentiment filter"})
	}
	if req.SortBy != "" && req.SortBy != dto.SortByRecency && req.SortBy != dto.SortByVelocity {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid sort order"})
	}

	response, err := h.narrativeService.ListNarratives(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Failed to list narratives", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list narratives"})
	}
	return c.JSON(http.StatusOK, response)
}

// GetNarrative returns one narrative with linked items and latest metrics.
func (h *NarrativeHandler) GetNarrative(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid narrative ID"})
	}

	response, err := h.narrativeService.GetNarrative(c.Request().Context(), uint(id))
	if err != nil {
		h.logger.Error("Failed to get narrative", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get narrative"})
	}
	if response == nil {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Narrative not found"})
	}
	return c.JSON(http.StatusOK, response)
}
