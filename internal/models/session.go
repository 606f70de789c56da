package models

import (
	"encoding/gob"
	"net/http"

	constants "HerShield/pkg/constant"
	"HerShield/pkg/logger"
	"HerShield/pkg/response"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Flash is a one-shot message shown on the next page load.
type Flash struct {
	Category string `json:"category"` // success|danger|warning|info
	Message  string `json:"message"`
}

func init() {
	gob.Register(Flash{})
}

func AddFlash(c *gin.Context, category, message string) {
	s := sessions.Default(c)
	s.AddFlash(Flash{Category: category, Message: message})
	if err := s.Save(); err != nil {
		logger.Warn("save flash failed", zap.Error(err))
	}
}

// PopFlashes returns and clears pending flashes.
func PopFlashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return []Flash{}
	}
	if err := s.Save(); err != nil {
		logger.Warn("clear flashes failed", zap.Error(err))
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// Login binds the session to user.
func Login(c *gin.Context, user *User) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(constants.SessionUserID, user.ID)
	s.Set(constants.SessionUserName, user.Name)
	c.Set(constants.UserField, user)
	c.Set(constants.UserIDField, user.ID)
	return s.Save()
}

// Logout drops everything but leaves room for a goodbye flash.
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	c.Set(constants.UserField, nil)
	return s.Save()
}

func GetDB(c *gin.Context) *gorm.DB {
	return c.MustGet(constants.DbField).(*gorm.DB)
}

func GetAlertDB(c *gin.Context) *gorm.DB {
	if v, ok := c.Get(constants.AlertDbField); ok {
		if db, ok := v.(*gorm.DB); ok && db != nil {
			return db
		}
	}
	return GetDB(c)
}

// CurrentUser returns the session user, loading it once per request. Nil
// when not logged in or the user no longer exists.
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(constants.UserField); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	id := cast.ToUint(sessions.Default(c).Get(constants.SessionUserID))
	if id == 0 {
		return nil
	}
	user, err := GetUserByID(GetDB(c), id)
	if err != nil {
		return nil
	}
	c.Set(constants.UserField, user)
	c.Set(constants.UserIDField, user.ID)
	return user
}

// AuthRequired guards page routes: anonymous visitors are sent to /login.
func AuthRequired(c *gin.Context) {
	if CurrentUser(c) == nil {
		AddFlash(c, "warning", "Please login to access this page")
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// APIAuthRequired guards JSON routes with a 401.
func APIAuthRequired(c *gin.Context) {
	if CurrentUser(c) == nil {
		response.FailWithStatus(c, http.StatusUnauthorized, "Not logged in", nil)
		return
	}
	c.Next()
}

// AdminRequired must run after one of the auth guards.
func AdminRequired(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		response.FailWithStatus(c, http.StatusUnauthorized, "Not logged in", nil)
		return
	}
	if !user.IsAdmin {
		response.FailWithStatus(c, http.StatusForbidden, "Admin access required", nil)
		return
	}
	c.Next()
}
