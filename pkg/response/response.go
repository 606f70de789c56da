package response

import (
	apperrors "HerShield/pkg/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes {"message": msg, "data": data} with 200.
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"message": msg, "data": data})
}

// Fail writes {"error": msg} with 400 plus any extra fields in data.
func Fail(c *gin.Context, msg string, data gin.H) {
	FailWithStatus(c, http.StatusBadRequest, msg, data)
}

func FailWithStatus(c *gin.Context, status int, msg string, data gin.H) {
	body := gin.H{"error": msg}
	for k, v := range data {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// Error maps err through its code. 5xx errors never expose their message.
func Error(c *gin.Context, err error) {
	status := apperrors.GetCode(err)
	if status >= http.StatusInternalServerError {
		FailWithStatus(c, status, "Internal server error", nil)
		return
	}
	FailWithStatus(c, status, apperrors.GetMessage(err), nil)
}
