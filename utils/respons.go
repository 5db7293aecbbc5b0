package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FieldError points the client at the form field or option group at fault.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	GroupID uint   `json:"group_id,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

func RespondFieldError(c *gin.Context, code int, err error, field FieldError) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    field,
	})
}
