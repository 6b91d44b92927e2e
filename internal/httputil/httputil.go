package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/monoculum/formam"
)

// WriteJSON writes v as a JSON response. Encoding failures panic; the status
// line has already been sent by the time encoding runs.
func WriteJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("content-type", "application/json; charset=utf-8")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		panic(fmt.Errorf("httputil.WriteJSON: %w", err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func Error(rw http.ResponseWriter, status int, message string) {
	WriteJSON(rw, status, errorBody{Error: message})
}

func NotFound(rw http.ResponseWriter, r *http.Request) {
	Error(rw, http.StatusNotFound, "not found")
}

func BadRequest(rw http.ResponseWriter, message string) {
	Error(rw, http.StatusBadRequest, message)
}

// DecodeQuery fills v from the request's query string.
func DecodeQuery(r *http.Request, v interface{}) error {
	dec := formam.NewDecoder(&formam.DecoderOptions{TagName: "query", IgnoreUnknownKeys: true})

	if err := dec.Decode(r.URL.Query(), v); err != nil {
		return fmt.Errorf("httputil.DecodeQuery: %w", err)
	}

	return nil
}

// DecodeBody fills v from a JSON request body.
func DecodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("httputil.DecodeBody: %w", err)
	}

	return nil
}
