package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/catalog"
	"github.com/ariefcatur/scent-admin/internal/inventory"
	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/orders"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/ariefcatur/scent-admin/internal/session"
)

type errorResp struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// input errors caught before any request reaches the backend
var badInput = []error{
	resource.ErrMissingID,
	inventory.ErrMissingReason,
	inventory.ErrUnknownReason,
	inventory.ErrZeroDelta,
	inventory.ErrNegativeStock,
	orders.ErrInvalidStatus,
	orders.ErrEmptyEmail,
	orders.ErrRefundAmount,
	notes.ErrEmpty,
	catalog.ErrMissingName,
	catalog.ErrMissingProductName,
	catalog.ErrOwnParent,
	session.ErrMissingCredentials,
}

// writeError maps a service error to a console response. Backend messages
// are passed through untouched.
func writeError(w http.ResponseWriter, err error) {
	for _, target := range badInput {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
			return
		}
	}
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: apiclient.GenericMessage})
		return
	}
	switch apiErr.Kind {
	case apiclient.KindAuth:
		writeJSON(w, http.StatusUnauthorized, errorResp{Error: apiErr.Message, Redirect: apiclient.LoginRoute})
	case apiclient.KindForbidden:
		writeJSON(w, http.StatusForbidden, errorResp{Error: apiErr.Message})
	case apiclient.KindValidation:
		writeJSON(w, http.StatusUnprocessableEntity, errorResp{Error: apiErr.Message, Fields: apiErr.FieldErrors})
	case apiclient.KindNetwork:
		writeJSON(w, http.StatusBadGateway, errorResp{Error: apiErr.Message})
	default:
		code := apiErr.Status
		if code < 400 {
			code = http.StatusBadGateway
		}
		writeJSON(w, code, errorResp{Error: apiErr.Message})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid json"})
		return false
	}
	return true
}
