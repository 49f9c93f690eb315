package http

import "github.com/gin-gonic/gin"

// Envelope es la forma uniforme de toda respuesta del API.
type Envelope struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Error:      false,
		Message:    message,
		StatusCode: status,
		Data:       data,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Error:      true,
		Message:    message,
		StatusCode: status,
	})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Error:      true,
		Message:    message,
		StatusCode: status,
	})
}
