package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"
)

// paginationHeader carries the pre-slice total alongside the applied
// window so clients can walk large collections.
const paginationHeader = "X-Pagination"

type pageInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// paginate applies the limit/offset query params to items. Without a
// usable limit the slice is returned untouched and no header is set.
// Out-of-range windows slice to empty.
func paginate[T any](c echo.Context, items []T) []T {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 0 {
		return items
	}

	offset := 0
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	total := len(items)
	header, _ := json.Marshal(pageInfo{Limit: limit, Offset: offset, Total: total})
	c.Response().Header().Set(paginationHeader, string(header))

	if offset >= total {
		return items[:0]
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end]
}
