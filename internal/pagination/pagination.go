// Package pagination turns untrusted page/limit input into safe values.
package pagination

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const (
	// DefaultLimit is used when the limit is missing or not a number.
	DefaultLimit = 20
	// MaxPage bounds the page number so offsets stay representable.
	MaxPage = math.MaxInt32
)

// Request is raw caller input. Page and Limit may hold any value: integers,
// floats, numeric strings, or garbage. A nil or blank value means "not supplied".
type Request struct {
	Page  any
	Limit any
}

// Result is a normalized pagination window.
// Page >= 1 and 1 <= Limit <= maxLimit always hold.
type Result struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	WasClamped bool `json:"clamped"`
}

// FromQuery reads the page and limit query parameters.
func FromQuery(values url.Values) Request {
	var req Request
	if values.Has("page") {
		req.Page = values.Get("page")
	}
	if values.Has("limit") {
		req.Limit = values.Get("limit")
	}
	return req
}

// Normalize coerces req into a valid window. It never fails: anything it
// cannot use is replaced with a default, and WasClamped reports whether an
// output differs from the numeric value of its input.
func Normalize(req Request, maxLimit int) Result {
	if maxLimit < 1 {
		maxLimit = 1
	}

	page, pageClamped := normalizePage(req.Page)
	limit, limitClamped := normalizeLimit(req.Limit, maxLimit)

	return Result{
		Page:       page,
		Limit:      limit,
		WasClamped: pageClamped || limitClamped,
	}
}

// Request converts the result back into a request, e.g. to forward it.
func (r Result) Request() Request {
	return Request{Page: r.Page, Limit: r.Limit}
}

// Offset returns the zero-based index of the first item on the page.
func (r Result) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

func normalizePage(v any) (int, bool) {
	n, ok := coerce(v)
	if !ok {
		return 1, false
	}
	if !n.exact && (math.IsNaN(n.f) || math.IsInf(n.f, 0)) {
		return 1, true
	}
	return n.clamp(MaxPage)
}

func normalizeLimit(v any, maxLimit int) (int, bool) {
	def := DefaultLimit
	if def > maxLimit {
		def = maxLimit
	}

	n, ok := coerce(v)
	if !ok {
		return def, false
	}
	if !n.exact && (math.IsNaN(n.f) || math.IsInf(n.f, 0)) {
		return def, true
	}
	return n.clamp(maxLimit)
}

// number is a coerced input. Integer input is kept in i so that values
// beyond float64 precision survive unchanged.
type number struct {
	i     int64
	f     float64
	exact bool
}

// clamp floors n into [1, hi] and reports whether the result differs from n.
func (n number) clamp(hi int) (int, bool) {
	if n.exact {
		switch {
		case n.i < 1:
			return 1, true
		case n.i > int64(hi):
			return hi, true
		}
		return int(n.i), false
	}

	l := math.Floor(n.f)
	switch {
	case l < 1:
		return 1, true
	case l >= 1<<63:
		return hi, true
	}
	li := int64(l)
	if li > int64(hi) {
		return hi, true
	}
	return int(li), l != n.f
}

// coerce returns the numeric value of v. The bool is false when v was not
// supplied at all. Values that are not numbers coerce to NaN.
func coerce(v any) (number, bool) {
	switch t := v.(type) {
	case nil:
		return number{}, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return number{}, false
		}
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return number{i: i, exact: true}, true
		}
		v = t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return number{i: i, exact: true}, true
		}
	case int, int8, int16, int32, int64:
		return number{i: cast.ToInt64(t), exact: true}, true
	case uint, uint8, uint16, uint32, uint64:
		u := cast.ToUint64(t)
		if u <= math.MaxInt64 {
			return number{i: int64(u), exact: true}, true
		}
		return number{f: float64(u)}, true
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return number{f: math.NaN()}, true
	}
	return number{f: f}, true
}
