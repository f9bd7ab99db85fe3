package web

// handlers_common.go holds the helpers shared across handler files:
// query parsing, request body decoding with validation, and CSV
// download responses.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

var validate = newValidator()

// newValidator builds the shared validator, reporting JSON field names
// in failures instead of Go struct field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseListOptions extracts the common listing parameters from the URL.
func parseListOptions(r *http.Request) store.ListOptions {
	q := r.URL.Query()
	return store.ListOptions{
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
		Page:    parseIntParam(r, "page", 1),
		PerPage: parseIntParam(r, "perPage", store.DefaultPageSize),
	}
}

// listResponse is the JSON envelope for paginated listings.
type listResponse struct {
	Items   any   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
}

func newListResponse(items any, total int64, opts store.ListOptions) listResponse {
	return listResponse{Items: items, Total: total, Page: opts.Page, PerPage: opts.PerPage}
}

// decodeValid decodes a JSON request body into dst and validates it.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

// validationMessage rewrites validator failures into the same
// vocabulary the import pipeline uses, so the error map assigns
// consistent codes to both paths.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("required field %s is empty", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("invalid enum value for %s: must be one of %s", fe.Field(), fe.Param()))
		case "datetime":
			parts = append(parts, fmt.Sprintf("invalid date for %s: expected format %s", fe.Field(), fe.Param()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than zero", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("invalid value for %s", fe.Field()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

// serveCSV writes content as a CSV attachment download.
func serveCSV(w http.ResponseWriter, content []byte, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(content)
}
