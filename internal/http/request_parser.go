package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finanzas/internal/aggregate"
	"finanzas/internal/core"
	"finanzas/internal/format"
)

// maxBodyBytes caps request bodies; snapshots never travel through the API.
const maxBodyBytes = 1 << 20

// Amount accepts a JSON number or a localized string such as "$15.000".
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(format.ParseLocalizedNumber(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("amount %s is not a number", n)
		}
		switch {
		case f >= math.MaxInt64:
			v = math.MaxInt64
		case f <= math.MinInt64:
			v = math.MinInt64
		default:
			v = int64(math.Round(f))
		}
	}
	*a = Amount(v)
	return nil
}

// decodeJSON reads one JSON object from the body into dst. Unknown fields
// are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", errors.New("empty request body"))
		}
		return core.Invalid("body", err)
	}
	if dec.More() {
		return core.Invalid("body", errors.New("trailing data after JSON object"))
	}
	return nil
}

// pathID parses the {name} path segment as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(name, fmt.Errorf("%q is not a valid id", raw))
	}
	return id, nil
}

// ParseTransactionFilter reads from, to, min, max, category and profile.
// Amount bounds go through the localized number parser, so "$5.000" and
// "5000" are the same bound.
func ParseTransactionFilter(query url.Values) (aggregate.TransactionFilter, error) {
	var f aggregate.TransactionFilter
	var err error
	if f.From, err = parseDateParam(query, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDateParam(query, "to"); err != nil {
		return f, err
	}
	f.MinAmount = format.ParseLocalizedNumber(query.Get("min"))
	f.MaxAmount = format.ParseLocalizedNumber(query.Get("max"))
	f.Category = sanitizeInput(query.Get("category"))
	f.Profile = sanitizeInput(query.Get("profile"))
	return f, nil
}

func parseDateParam(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(key, err)
	}
	return d, nil
}

// parseIntParam returns def when key is absent.
func parseIntParam(query url.Values, key string, def int64) (int64, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, core.Invalid(key, fmt.Errorf("%q is not a number", v))
	}
	return n, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
