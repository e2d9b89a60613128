// Package pagination reads limit/offset query parameters and wraps list
// responses in a page envelope.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Limit  int
	Offset int
}

// Parse reads limit and offset. Absent values take defaults and a limit
// above MaxLimit is capped; values that are not integers or are out of
// range are rejected with 400.
func Parse(c echo.Context) (Params, error) {
	p := Params{Limit: DefaultLimit}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		p.Limit = min(n, MaxLimit)
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		p.Offset = n
	}
	return p, nil
}

// Page is one slice of a longer result. Data is never null.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func NewPage[T any](data []T, total int, p Params) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+len(data) < total,
	}
}
