package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stadtaev/cityquest/internal/quest"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeQuestError maps the core error taxonomy to HTTP statuses. Validation
// failures carry the specific message so the user can retry; not-found stays
// generic because it signals a routing bug, not user error.
func writeQuestError(log *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quest.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quest.ErrNotFound):
		log.Warn("lookup miss", "error", err)
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, quest.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, quest.ErrGameInactive):
		writeError(w, http.StatusConflict, "game is not active")
	default:
		log.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
