package utils

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the uniform envelope every endpoint responds with. The gate
// scanner client only inspects the body, so business-rule rejections are sent
// with HTTP 200 and Status "error".
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string) APIResponse {
	return APIResponse{
		Status:  "error",
		Message: message,
	}
}

// WriteJSON writes the envelope with the given HTTP status code.
func WriteJSON(w http.ResponseWriter, code int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
