package serverutils

// BaseResponse is the envelope of every JSON response except the QA contract
type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// InternalErrorBody hides upstream details behind a generic message
type InternalErrorBody struct {
	Detail string `json:"detail"`
}

const InternalErrorMessage = "Internal server error"
