package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseDays reads the `days` query parameter as the export period selector:
// absent, empty or non-positive means all time (nil).
func parseDays(r *http.Request) *int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return nil
	}
	return &days
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
