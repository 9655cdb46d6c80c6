package entity

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code string, message string) *APIResponse {
	return &APIResponse{
		Success: false,
		Message: message,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}
}

// ToolResponse is the envelope returned to the conversational-AI provider's
// tool-invocation layer. The shape is part of the external contract:
// {"success": true, ...} on success, {"error": "..."} on failure.
type ToolResponse map[string]interface{}

func NewToolSuccess(fields map[string]interface{}) ToolResponse {
	resp := ToolResponse{"success": true}
	for k, v := range fields {
		resp[k] = v
	}
	return resp
}

func NewToolError(message string) ToolResponse {
	return ToolResponse{"error": message}
}
