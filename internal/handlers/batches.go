package handlers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"bakeline/internal/apperrors"
	"bakeline/internal/i18n"
	"bakeline/internal/production"
	"bakeline/models"
)

// batchView decorates a batch with labels in the caller's language.
type batchView struct {
	models.ProductionProcess
	StatusLabel   string `json:"status_label"`
	PriorityLabel string `json:"priority_label"`
}

func newBatchView(tag language.Tag, p models.ProductionProcess) batchView {
	return batchView{
		ProductionProcess: p,
		StatusLabel:       i18n.StatusLabel(tag, p.Status),
		PriorityLabel:     i18n.PriorityLabel(tag, p.Priority),
	}
}

func newBatchViews(tag language.Tag, batches []models.ProductionProcess) []batchView {
	views := make([]batchView, 0, len(batches))
	for _, p := range batches {
		views = append(views, newBatchView(tag, p))
	}
	return views
}

type transitionRequest struct {
	Event string `json:"event"`
}

type progressRequest struct {
	Progress int `json:"progress"`
}

type conditionsRequest struct {
	Temperature decimal.NullDecimal `json:"temperature"`
	Humidity    decimal.NullDecimal `json:"humidity"`
}

type noteRequest struct {
	Description string `json:"description"`
}

type qualityCheckRequest struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
	Status    string `json:"status"`
}

type usageRequest struct {
	UsedQuantity decimal.Decimal `json:"used_quantity"`
}

// ListBatches accepts ?status=active, a comma separated status list (stored
// values or labels), and an optional from/to start time range.
func (a *API) ListBatches(w http.ResponseWriter, r *http.Request) {
	var filter production.BatchFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		if strings.EqualFold(raw, "active") {
			filter.Statuses = models.ActiveStatuses()
		} else {
			for _, part := range strings.Split(raw, ",") {
				status, ok := i18n.ParseStatus(part)
				if !ok {
					writeError(w, r, &apperrors.InvalidQuantityError{Field: "status", Value: part, Reason: "is not a known status"})
					return
				}
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}

	var err error
	if filter.From, err = queryTime(r, "from", false); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = queryTime(r, "to", true); err != nil {
		writeError(w, r, err)
		return
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		writeError(w, r, &apperrors.InvalidQuantityError{Field: "to", Value: r.URL.Query().Get("to"), Reason: "must not be before from"})
		return
	}

	batches, err := a.production.ListBatches(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchViews(locale(r), batches))
}

// CreateBatch plans a batch. The signed-in operator runs it unless the body
// names another one.
func (a *API) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req production.CreateBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	priority, ok := i18n.ParsePriority(req.Priority)
	if !ok {
		writeError(w, r, &apperrors.InvalidQuantityError{Field: "priority", Value: req.Priority, Reason: "is not a known priority"})
		return
	}
	req.Priority = string(priority)
	if req.OperatorID == 0 {
		req.OperatorID = a.operatorID(r)
	}

	batch, err := a.production.CreateBatch(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBatchView(locale(r), batch))
}

func (a *API) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	batch, err := a.production.GetBatch(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchView(locale(r), batch))
}

func (a *API) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.DeleteBatch(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) TransitionBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, ok := production.ParseEvent(req.Event)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "unknown event "+strings.TrimSpace(req.Event))
		return
	}
	batch, err := a.production.Transition(r.Context(), id, ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchView(locale(r), batch))
}

func (a *API) SetBatchProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	batch, err := a.production.SetProgress(r.Context(), id, req.Progress)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchView(locale(r), batch))
}

func (a *API) RecordBatchConditions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req conditionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	batch, err := a.production.RecordConditions(r.Context(), id, req.Temperature, req.Humidity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchView(locale(r), batch))
}

func (a *API) BatchEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := a.production.Events(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *API) AddBatchNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	event, err := a.production.AddNote(r.Context(), id, strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// DeleteBatchEvent removes an audit event. Administrative cleanup only.
func (a *API) DeleteBatchEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.production.DeleteEvent(r.Context(), id, eventID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) BatchQualityChecks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	checks, err := a.production.QualityChecks(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

func (a *API) AddBatchQualityCheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req qualityCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	check, err := a.production.AddQualityCheck(r.Context(), id, req.Parameter, req.Value, req.Unit, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, check)
}

func (a *API) BatchIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lines, err := a.production.BatchIngredients(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// RecordBatchIngredientUsage overrides the used quantity of one line.
func (a *API) RecordBatchIngredientUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ingredientID, err := pathID(r, "ingredientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	line, err := a.production.RecordIngredientUsage(r.Context(), id, ingredientID, req.UsedQuantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}
