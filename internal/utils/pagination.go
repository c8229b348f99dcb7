package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fittrack/internal/apperrors"
)

type PaginationParams struct {
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"page_size" form:"page_size"`
	Sort     string `json:"sort" form:"sort"`
	Order    string `json:"order" form:"order"`
	Search   string `json:"search" form:"search"`
}

type PaginationMeta struct {
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	Total        int64 `json:"total"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     *int  `json:"next_page,omitempty"`
	PreviousPage *int  `json:"previous_page,omitempty"`
}

// GetPaginationParams reads page, page_size, sort, order and search from the
// query string, clamping everything to sane bounds.
func GetPaginationParams(c *gin.Context) *PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return &PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery("sort", "created_at"),
		Order:    order,
		Search:   c.Query("search"),
	}
}

// EnsureSortAllowed rejects sort columns outside the caller's allow-list.
// The sort param is caller-supplied and must never reach a query sort
// document unchecked.
func (p *PaginationParams) EnsureSortAllowed(allowed ...string) error {
	for _, field := range allowed {
		if p.Sort == field {
			return nil
		}
	}
	return apperrors.NewValidationError("sort", "unsupported sort field: "+p.Sort)
}

func (p *PaginationParams) GetSkip() int {
	return (p.Page - 1) * p.PageSize
}

func (p *PaginationParams) GetLimit() int {
	return p.PageSize
}

// GetSortOptions translates the params into mongo find options.
func (p *PaginationParams) GetSortOptions() *options.FindOptions {
	sortOrder := 1
	if p.Order == "desc" {
		sortOrder = -1
	}

	return options.Find().
		SetSkip(int64(p.GetSkip())).
		SetLimit(int64(p.GetLimit())).
		SetSort(bson.D{{Key: p.Sort, Value: sortOrder}})
}

// GetSearchFilter builds a case-insensitive regex match over the given
// fields, or an empty filter when there is nothing to search.
func (p *PaginationParams) GetSearchFilter(fields []string) bson.M {
	if p.Search == "" || len(fields) == 0 {
		return bson.M{}
	}

	conditions := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, bson.M{
			field: bson.M{"$regex": p.Search, "$options": "i"},
		})
	}

	return bson.M{"$or": conditions}
}

func CreatePaginationMeta(params *PaginationParams, total int64) *PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(params.PageSize)))

	meta := &PaginationMeta{
		Page:        params.Page,
		PageSize:    params.PageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}

	if meta.HasNext {
		next := params.Page + 1
		meta.NextPage = &next
	}
	if meta.HasPrevious {
		previous := params.Page - 1
		meta.PreviousPage = &previous
	}

	return meta
}
