package handlers

import "net/http"

func (a *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.production.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
