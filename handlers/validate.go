package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/casewise/casewise-api/validation"
)

// validateRequest writes a 400 with field errors and reports true when
// the request struct fails its validate tags.
func validateRequest(w http.ResponseWriter, req interface{}) bool {
	errs := validation.Validate(req)
	if errs == nil {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{"errors": errs})
	return true
}
