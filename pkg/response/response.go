package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every endpoint returns. User is only populated
// by endpoints that hand back the account payload (register, login, verify, me).
type APIResponse struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	User      interface{} `json:"user,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

func Success(ctx *gin.Context, status int, message string, user interface{}) APIResponse {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		User:      user,
	}
}

func Error(ctx *gin.Context, status int, message string, err interface{}) APIResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// JSON writes a success envelope to the client.
func JSON(ctx *gin.Context, status int, message string, user interface{}) {
	resp := Success(ctx, status, message, user)
	ctx.JSON(resp.Status, resp)
}

// Fail writes an error envelope to the client.
func Fail(ctx *gin.Context, status int, message string, err interface{}) {
	resp := Error(ctx, status, message, err)
	ctx.JSON(resp.Status, resp)
}
