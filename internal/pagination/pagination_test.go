package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageFor(t *testing.T, query string) Page {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/list"+query, nil)
	return FromQuery(c)
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Page
	}{
		{"defaults", "", Page{Limit: DefaultLimit, Skip: 0}},
		{"explicit", "?limit=10&skip=30", Page{Limit: 10, Skip: 30}},
		{"limit capped", "?limit=9999", Page{Limit: MaxLimit, Skip: 0}},
		{"limit floor", "?limit=0", Page{Limit: 1, Skip: 0}},
		{"negative skip", "?skip=-5", Page{Limit: DefaultLimit, Skip: 0}},
		{"garbage", "?limit=ten&skip=few", Page{Limit: DefaultLimit, Skip: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageFor(t, tt.query))
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, total := Slice(items, Page{Limit: 2, Skip: 1})
	assert.Equal(t, []int{2, 3}, page)
	assert.Equal(t, 5, total)

	page, total = Slice(items, Page{Limit: 10, Skip: 4})
	assert.Equal(t, []int{5}, page)
	assert.Equal(t, 5, total)

	page, total = Slice(items, Page{Limit: 10, Skip: 99})
	assert.Empty(t, page)
	assert.Equal(t, 5, total)
}
