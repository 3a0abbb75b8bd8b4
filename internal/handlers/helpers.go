package handlers

import (
	"encoding/json"
	"net/http"

	"bookwise-backend/internal/httpx"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return httpx.DecodeJSON(r.Body, v)
}

func writeCachedJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func encodeJSON(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}
