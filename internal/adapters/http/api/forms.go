package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// pathID parses the {id} route parameter.
func pathID(r *http.Request, op string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid id %q", raw))
	}
	return id, nil
}

// formInt reads a required integer form field.
func formInt(r *http.Request, op, key string) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("%s is required", key))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be an integer", key))
	}
	return v, nil
}

// formOptionalInt reads an integer form field that may be blank.
func formOptionalInt(r *http.Request, op, key string) (int, bool, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be an integer", key))
	}
	return v, true, nil
}

func parseForm(r *http.Request, op string) error {
	if err := r.ParseForm(); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
