package pagination

// Page is one window over a list of items.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	Clamped bool `json:"clamped"`
}

// Window returns the slice of items selected by r. Pages past the end are
// empty, not an error.
func Window[T any](items []T, r Result) Page[T] {
	total := len(items)
	start := r.Offset()
	if start > total || start < 0 {
		start = total
	}
	end := start + r.Limit
	if end > total || end < start {
		end = total
	}

	return Page[T]{
		Items:   items[start:end],
		Page:    r.Page,
		Limit:   r.Limit,
		Total:   total,
		HasNext: end < total,
		Clamped: r.WasClamped,
	}
}
