package types

import "github.com/dfrchat/backend/pkg/pagination"

// SuccessEnvelope is the body shape for every successful response.
type SuccessEnvelope struct {
	Success bool             `json:"success"`
	Data    any              `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Page    *pagination.Page `json:"pagination,omitempty"`
}

// APIError carries the machine-readable error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the body shape for every failed response.
type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}
