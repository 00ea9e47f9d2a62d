package problem

import (
	"encoding/json"
	"net/http"
)

// ContentType is the media type used for every error body produced here.
const ContentType = "application/problem+json"

// Write encodes details as the body of an HTTP response, setting the
// status code and content type RFC 7807 requires.
func Write(w http.ResponseWriter, details Details) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(details.Status)
	return json.NewEncoder(w).Encode(details)
}

// WriteError is a convenience wrapper around Write for a problem Error.
func WriteError(w http.ResponseWriter, err *Error, serviceName, apiVersion string, components []string) error {
	return Write(w, err.ToDetails(serviceName, apiVersion, components))
}
