package dto

// Response is the envelope of every API reply. Exactly one of Data and
// Error is set; Meta accompanies paged lists.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code" example:"VALIDATION_ERROR"`
	Message   string             `json:"message" example:"Request validation failed"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
	Retryable bool               `json:"retryable,omitempty"`
}

// ValidationDetail describes one invalid request field
type ValidationDetail struct {
	Field   string `json:"field" example:"restaurantRating"`
	Message string `json:"message" example:"restaurantRating must be at most 5"`
	Tag     string `json:"tag,omitempty" example:"max"`
}

// Meta describes the page a list reply holds
type Meta struct {
	Total      int64 `json:"total" example:"42"`
	Page       int   `json:"page" example:"1"`
	PageSize   int   `json:"page_size" example:"20"`
	TotalPages int   `json:"total_pages" example:"3"`
}

const fallbackPageSize = 20

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps one page of a list. A non-positive
// pageSize is reported as 20.
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = fallbackPageSize
	}
	size := int64(pageSize)
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: int((total + size - 1) / size),
		},
	}
}

// NewErrorResponseWithRequestID is the failure envelope; requestID echoes
// X-Request-ID so clients can quote it
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// NewRetryableErrorResponse marks a transient failure the client may retry
func NewRetryableErrorResponse(code, message, requestID string) Response {
	resp := NewErrorResponseWithRequestID(code, message, requestID)
	resp.Error.Retryable = true
	return resp
}

// NewValidationErrorResponse carries one detail per rejected field
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// PageQuery binds the page, page_size and order_dir query parameters shared
// by the list endpoints that take no other filters
type PageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
