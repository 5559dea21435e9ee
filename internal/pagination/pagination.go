// Package pagination provides offset-based pagination utilities.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLimit applies when a list request omits the limit parameter.
	DefaultLimit = 100
	// MaxLimit caps a single page regardless of what the caller asks for.
	MaxLimit = 500
)

// Page is a parsed limit/skip pair.
type Page struct {
	Limit int
	Skip  int
}

// FromQuery parses "limit" and "skip" query parameters. Missing or malformed
// values fall back to defaults rather than erroring; out-of-range values are
// clamped.
func FromQuery(c *gin.Context) Page {
	return Page{
		Limit: parseClamped(c.Query("limit"), DefaultLimit, 1, MaxLimit),
		Skip:  parseClamped(c.Query("skip"), 0, 0, 1<<31-1),
	}
}

// Slice applies the page to an already-sorted slice, returning the page items
// and the total count.
func Slice[T any](items []T, p Page) ([]T, int) {
	total := len(items)
	if p.Skip >= total {
		return []T{}, total
	}
	end := p.Skip + p.Limit
	if end > total {
		end = total
	}
	return items[p.Skip:end], total
}

func parseClamped(s string, fallback, min, max int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
