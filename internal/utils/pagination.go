package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldstone/task-tracker-api/internal/constants"
)

// PaginationParams holds validated pagination parameters.
type PaginationParams struct {
	Page  int
	Limit int
}

// PaginationResponse is the pagination envelope in list responses.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// GetPaginationParams extracts page and limit from the query string,
// clamping them to sane bounds (page >= 1, 1 <= limit <= 100).
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	return PaginationParams{Page: page, Limit: limit}
}

// NewPaginationResponse computes the page count for a result set.
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	pages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		pages++
	}
	return PaginationResponse{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Pages: pages,
	}
}
