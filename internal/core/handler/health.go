package handler

import "net/http"

// Health reports liveness only; dependencies are not checked.
func Health(w http.ResponseWriter, _ *http.Request) {
	base := &BaseHandler{}
	base.RespondWithSuccess(w, http.StatusOK, "ok", map[string]string{"status": "up"})
}
