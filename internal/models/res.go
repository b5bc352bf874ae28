package models

import "errors"

type ApiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// ValidationErrorResponse keeps field details when err is a ValidationError.
func ValidationErrorResponse(err error) ApiResponse {
	res := ErrorResponse(err.Error())
	var verr *ValidationError
	if errors.As(err, &verr) {
		res.Error = ErrValidation.Error()
		res.Details = verr.Fields
	}
	return res
}
