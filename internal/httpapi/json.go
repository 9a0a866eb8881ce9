package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"activation_fulfiller/internal/apperr"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("missing JSON payload")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	body := map[string]any{
		"error": err.Error(),
		"code":  kind.String(),
	}
	if e, ok := apperr.As(err); ok && len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}
	writeJSON(w, apperr.HTTPStatus(kind), body)
}
