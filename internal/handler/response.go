package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeErrorKind(w, status, "", message)
}

func writeErrorKind(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
			Kind:   string(kind),
		},
	})
}

// writeDomainError maps a classified service error onto the error envelope.
// Persistence and upstream causes are logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	message := domain.MessageOf(err)
	if status >= 500 {
		slog.Default().Error("request failed",
			"method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	if kind == domain.KindPersistence {
		message = http.StatusText(status)
	}
	writeErrorKind(w, status, kind, message)
}

func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindAlreadyClosed:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the body into dst and runs its validate tags. Failures are
// written as 400 validation errors and reported as false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, "invalid payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeErrorKind(w, http.StatusBadRequest, domain.KindValidation, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
