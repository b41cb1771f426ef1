package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRespondStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not found", storeerr.NotFound("get", "work %d", 1), http.StatusNotFound, "not_found"},
		{"conflict", storeerr.Conflict("add", "duplicate"), http.StatusConflict, "conflict"},
		{"integrity", storeerr.Classify("reorder", storeerr.Integrity("reorder", "mismatch")), http.StatusUnprocessableEntity, "integrity_violation"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "canceled"},
		{"store", storeerr.Classify("list", errors.New("disk I/O error")), http.StatusInternalServerError, "store_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext("/")
			respondStoreError(c, tt.err, "test")

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestRespondStoreError_HidesStoreDetails(t *testing.T) {
	c, w := testContext("/")
	respondStoreError(c, errors.New("near \"SELEC\": syntax error"), "test")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "SELEC")
}

func TestParsePage(t *testing.T) {
	c, _ := testContext("/?page=3&pageSize=20&order=price&sort=asc")
	p, ok := parsePage(c)

	require.True(t, ok)
	assert.Equal(t, query.Page{Number: 3, Size: 20, OrderBy: query.SortPrice, Desc: false}, p)

	c, _ = testContext("/")
	p, ok = parsePage(c)
	require.True(t, ok)
	assert.Equal(t, query.DefaultPage(), p)
}

func TestParsePage_Invalid(t *testing.T) {
	for _, target := range []string{"/?page=-1", "/?page=x", "/?pageSize=0", "/?pageSize=101", "/?order=nope", "/?sort=up"} {
		c, w := testContext(target)
		_, ok := parsePage(c)

		assert.False(t, ok, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestParseFilter(t *testing.T) {
	c, _ := testContext("/?age=r18")
	f, ok := parseFilter(c)
	require.True(t, ok)
	assert.Equal(t, entities.AgeRatingR18, f.AgeRating)

	c, _ = testContext("/?age=all")
	f, ok = parseFilter(c)
	require.True(t, ok)
	assert.Empty(t, f.AgeRating)
}

func TestParseIDParam(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "4294967295": true, "0": false, "-3": false, "4294967296": false, "x": false} {
		c, _ := testContext("/")
		c.Params = gin.Params{{Key: "id", Value: value}}
		_, ok := parseIDParam(c, "id")
		assert.Equal(t, want, ok, value)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
