package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/utils"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// writeError writes err as an AppError, wrapping anything else as internal
func writeError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := errors.As(err); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal(fallback, err))
}

// decodeJSON reads a JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.BadRequest("Invalid request body")
	}
	return nil
}
