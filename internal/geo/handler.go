package geo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ebotikaph/ebotika-api/internal/httputil"
	"github.com/ebotikaph/ebotika-api/internal/logging"
)

// Handler serves the area reference data the registration form needs.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListAreas returns all areas
// @Summary      List areas
// @Description  List the barangay areas available on the registration form
// @Tags         areas
// @Produce      json
// @Success      200 {array} Area
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /areas [get]
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	areas, err := h.store.ListAreas(r.Context())
	if err != nil {
		logger.Error("failed to list areas", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list areas", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, areas, http.StatusOK)
}

// ListSubAreas returns the sub-areas of one area
// @Summary      List sub-areas
// @Description  List the puroks of an area
// @Tags         areas
// @Produce      json
// @Param        areaID path string true "Area ID"
// @Success      200 {array} SubArea
// @Failure      400 {object} httputil.ErrorResponse "Invalid area ID"
// @Failure      404 {object} httputil.ErrorResponse "Area not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /areas/{areaID}/sub-areas [get]
func (h *Handler) ListSubAreas(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	areaID, err := uuid.Parse(chi.URLParam(r, "areaID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid area id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	subAreas, err := h.store.ListSubAreas(r.Context(), areaID)
	if err != nil {
		if errors.Is(err, ErrAreaNotFound) {
			httputil.RespondErrorWithCode(w, "area not found", httputil.CodeInvalidRequestBody, http.StatusNotFound)
			return
		}
		logger.Error("failed to list sub-areas", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list sub-areas", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, subAreas, http.StatusOK)
}
