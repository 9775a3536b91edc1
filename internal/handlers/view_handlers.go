package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
	"gridDashboard/internal/utils"
	"gridDashboard/internal/views"
	ctxutil "gridDashboard/utils"
)

const maxViewBodyBytes = 1 << 20

// ViewHandlers exposes a views.Store as the saved views API
type ViewHandlers struct {
	store  views.Store
	logger *logging.Logger
}

// NewViewHandlers creates view handlers over store
func NewViewHandlers(store views.Store, logger *logging.Logger) *ViewHandlers {
	return &ViewHandlers{
		store:  store,
		logger: logging.OrDiscard(logger).Named("views"),
	}
}

// HandleList answers GET /api/views?grid_key=K
func (h *ViewHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), r.URL.Query().Get("grid_key"))
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	if list == nil {
		list = []models.ViewRecord{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// HandleCreate answers POST /api/views
func (h *ViewHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !utils.RequireCSRFToken(w, r) {
		return
	}

	var view models.NewView
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewBodyBytes)).Decode(&view); err != nil {
		utils.BadRequestError(w, "Invalid JSON")
		return
	}

	record, err := h.store.Create(r.Context(), view)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"view_id":  record.ID,
		"grid_key": record.GridKey,
		"user":     userEmail(r),
	}).Info("View created")
	utils.RespondWithJSON(w, http.StatusCreated, record)
}

// HandleUpdate answers PATCH /api/views/{id}
func (h *ViewHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !utils.RequireCSRFToken(w, r) {
		return
	}

	var patch models.ViewPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewBodyBytes)).Decode(&patch); err != nil {
		utils.BadRequestError(w, "Invalid JSON")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.store.Update(r.Context(), id, patch); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"view_id": id,
		"user":    userEmail(r),
	}).Info("View updated")
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete answers DELETE /api/views/{id}
func (h *ViewHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !utils.RequireCSRFToken(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"view_id": id,
		"user":    userEmail(r),
	}).Info("View deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ViewHandlers) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch views.KindOf(err) {
	case views.KindNotFound:
		utils.NotFoundError(w)
	case views.KindInvalid:
		utils.ValidationError(w, messageOf(err))
	default:
		h.logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": ctxutil.GetRequestID(r),
		}).WithError(err).Error("View store failed")
		utils.InternalServerError(w, "Failed to access saved views")
	}
}

func messageOf(err error) string {
	var pe *views.PersistenceError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}

func userEmail(r *http.Request) string {
	email, _ := ctxutil.GetUserEmail(r)
	return email
}
