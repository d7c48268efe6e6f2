package models

// PaginatedResponse is the list envelope every paged endpoint returns.
type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func NewPaginatedResponse(data any, total, page, pageSize int) PaginatedResponse {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}
}

// NormalizePage clamps paging inputs to the served defaults: first page
// when the page is missing or negative, 10 per page when the size is
// absent or above 50.
func NormalizePage(page, size int) (int, int) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 50 {
		size = 10
	}

	return page, size
}
