package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
)

var validate = validator.New()

// response is the envelope every endpoint returns.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: true, Message: message})
}

// writeError maps the error taxonomy to a status and a safe message. This is
// the single point where domain errors cross into HTTP; nothing internal
// leaks past it.
func writeError(w http.ResponseWriter, err error) {
	if apperr.KindOf(err) == "" || apperr.Is(err, apperr.KindTransient) {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, apperr.HTTPStatus(err), response{Success: false, Message: apperr.SafeMessage(err)})
}

// decodeBody unmarshals and validates a request payload.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.KindValidation, "invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Newf(apperr.KindValidation, "invalid field %q", verrs[0].Field())
		}
		return apperr.New(apperr.KindValidation, "invalid request body")
	}
	return nil
}

// pathID parses an ObjectID from a path segment.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.PathValue(name))
	if err != nil {
		return primitive.NilObjectID, apperr.Newf(apperr.KindValidation, "invalid %s", name)
	}
	return id, nil
}

// optionalID parses an ObjectID from a hex string, tolerating empty input.
func optionalID(hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.KindValidation, "invalid id")
	}
	return id, nil
}
