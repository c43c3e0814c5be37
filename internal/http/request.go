package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// HeaderOwnerID carries the authenticated owner. Authentication itself
// happens upstream.
const HeaderOwnerID = "X-Owner-ID"

const maxBodyBytes = 1 << 20

func ownerID(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.Header.Get(HeaderOwnerID))
	if v == "" {
		return 0, fmt.Errorf("%w: missing %s header", core.ErrInvalidArgument, HeaderOwnerID)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s header %q", core.ErrInvalidArgument, HeaderOwnerID, v)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", core.ErrInvalidArgument, name, v)
	}
	return id, nil
}

// decodeJSON reads a single JSON object into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode request body: %v", core.ErrInvalidArgument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", core.ErrInvalidArgument)
	}
	return nil
}

func parseAmount(field, v string) (core.Money, error) {
	m, err := core.ParseMoney(v)
	if err != nil {
		return core.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	return m, nil
}

// parseDateOr parses v, returning fallback when v is empty.
func parseDateOr(field, v string, fallback core.Date) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(strings.TrimSpace(v))
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
