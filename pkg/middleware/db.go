package middleware

import (
	constants "HerShield/pkg/constant"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InjectDB makes the primary and alert databases available to handlers and
// the session middleware.
func InjectDB(db, alertDB *gorm.DB) gin.HandlerFunc {
	if alertDB == nil {
		alertDB = db
	}
	return func(c *gin.Context) {
		c.Set(constants.DbField, db)
		c.Set(constants.AlertDbField, alertDB)
		c.Next()
	}
}
