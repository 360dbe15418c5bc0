package handlers

import (
	"net/http"

	"bakeline/internal/staff"
)

type operatorRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

type lineRequest struct {
	Name string `json:"name"`
}

func (a *API) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := a.staff.ListOperators(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operators)
}

func (a *API) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	operator, err := a.staff.CreateOperator(r.Context(), req.Name, req.PIN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, operator)
}

func (a *API) ListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := a.staff.ListLines(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (a *API) CreateLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	line, err := a.staff.CreateLine(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (a *API) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req staff.OperatorUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	operator, err := a.staff.UpdateOperator(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operator)
}

func (a *API) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.staff.DeleteOperator(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req staff.LineUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	line, err := a.staff.UpdateLine(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (a *API) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.staff.DeleteLine(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
