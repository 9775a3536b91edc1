package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"gridDashboard/internal/gridstate"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
	"gridDashboard/internal/query"
	"gridDashboard/internal/utils"
	ctxutil "gridDashboard/utils"
)

const maxRowRequestBytes = 1 << 20

// RowQuerier executes a parsed row request
type RowQuerier interface {
	Execute(ctx context.Context, req query.Request) (models.RowPage, error)
}

// GridHandlers serves the server-side row model endpoint
type GridHandlers struct {
	rows     RowQuerier
	pageSize int
	logger   *logging.Logger
}

// NewGridHandlers creates grid handlers. pageSize is the window used when a
// request carries no endRow.
func NewGridHandlers(rows RowQuerier, pageSize int, logger *logging.Logger) *GridHandlers {
	return &GridHandlers{
		rows:     rows,
		pageSize: pageSize,
		logger:   logging.OrDiscard(logger).Named("grid"),
	}
}

// ColumnsResponse describes a grid to the page that renders it
type ColumnsResponse struct {
	GridKey      string             `json:"grid_key"`
	Columns      []models.ColumnDef `json:"columns"`
	DefaultState models.GridState   `json:"default_state"`
}

// HandleRows answers POST /api/grid/{table}
func (h *GridHandlers) HandleRows(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	// Unreadable bodies are treated like malformed JSON
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRowRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		body = nil
	}

	req, err := query.ParseRequest(table, body, h.pageSize)
	if err != nil {
		h.respondQueryError(w, r, table, err)
		return
	}

	page, err := h.rows.Execute(r.Context(), req)
	if err != nil {
		h.respondQueryError(w, r, table, err)
		return
	}

	if page.Rows == nil {
		page.Rows = []models.Row{}
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// HandleColumns answers GET /api/grid/{table}/columns
func (h *GridHandlers) HandleColumns(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	defs, ok := models.ColumnDefsFor(table)
	if !ok {
		utils.NotFoundError(w)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ColumnsResponse{
		GridKey:      table,
		Columns:      defs,
		DefaultState: gridstate.BuildDefaultState(defs),
	})
}

func (h *GridHandlers) respondQueryError(w http.ResponseWriter, r *http.Request, table string, err error) {
	var notFound *query.NotFoundError
	if errors.As(err, &notFound) {
		utils.NotFoundError(w)
		return
	}

	status := http.StatusInternalServerError
	var coder query.StatusCoder
	if errors.As(err, &coder) {
		status = coder.StatusCode()
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithFields(map[string]interface{}{
			"table":      table,
			"request_id": ctxutil.GetRequestID(r),
		}).WithError(err).Error("Row request failed")
	}
	utils.RespondWithError(w, status, err.Error())
}
