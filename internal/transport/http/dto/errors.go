package dto

// BaseError — единый формат ошибки API.
// Code — машинный код (snake_case), Message — текст для человека,
// Fields — ошибки по полям для validation_error.
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError: Field — путь к полю, например "shipping.city".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationError(msg string, fields []FieldError) BaseError {
	return BaseError{Code: "validation_error", Message: msg, Fields: fields}
}

func NewConflictError(msg string) BaseError {
	return BaseError{Code: "conflict", Message: msg}
}

func NewInsufficientStockError(msg string) BaseError {
	return BaseError{Code: "insufficient_stock", Message: msg}
}

func NewUnauthorizedError(msg string) BaseError {
	return BaseError{Code: "unauthorized", Message: msg}
}

func NewForbiddenError(msg string) BaseError {
	return BaseError{Code: "forbidden", Message: msg}
}

func NewNotFoundError(msg string) BaseError {
	return BaseError{Code: "not_found", Message: msg}
}

func NewInternalError(msg string) BaseError {
	return BaseError{Code: "internal_error", Message: msg}
}
