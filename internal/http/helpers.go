package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/yodhcn/kikoeru-express/internal/database/query"
	"github.com/yodhcn/kikoeru-express/internal/entities"
	"github.com/yodhcn/kikoeru-express/internal/storeerr"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error kind
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondStoreError maps a store error kind to its HTTP status. Store
// failures are logged and hidden from the client.
func respondStoreError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, storeerr.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, storeerr.ErrIntegrity):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "integrity_violation"})
	case errors.Is(err, storeerr.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request canceled", Code: "canceled"})
	default:
		log.Error("internal error", "op", op, "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "store_failure"})
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePage reads page, order and sort query parameters. Missing values fall
// back to query.DefaultPage.
func parsePage(c *gin.Context) (query.Page, bool) {
	p := query.DefaultPage()

	if s := c.Query("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondBadRequest(c, "invalid page")
			return p, false
		}
		p.Number = n
	}
	if s := c.Query("pageSize"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			respondBadRequest(c, "invalid pageSize")
			return p, false
		}
		p.Size = n
	}
	if s := c.Query("order"); s != "" {
		field, err := query.ParseSortField(s)
		if err != nil {
			respondBadRequest(c, err.Error())
			return p, false
		}
		p.OrderBy = field
	}
	switch c.DefaultQuery("sort", "desc") {
	case "desc":
		p.Desc = true
	case "asc":
		p.Desc = false
	default:
		respondBadRequest(c, "sort must be asc or desc")
		return p, false
	}
	return p, true
}

// parseFilter reads the release and age query parameters.
func parseFilter(c *gin.Context) (query.Filter, bool) {
	var f query.Filter

	term, err := query.ParseReleaseTerm(c.Query("release"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return f, false
	}
	f.Release = term

	if s := c.Query("age"); s != "" && s != "all" {
		rating, err := entities.ParseAgeRating(s)
		if err != nil {
			respondBadRequest(c, err.Error())
			return f, false
		}
		f.AgeRating = rating
	}
	return f, true
}
