package listeners

import (
	"strings"

	"HerShield/internal/models"
	"HerShield/pkg/logger"
	"HerShield/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitUserListeners promotes new signups whose email is configured as admin
// and logs logins.
func InitUserListeners(db *gorm.DB, adminEmails []string) {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}

	util.Sig().Connect(models.SigUserCreate, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok {
			return
		}
		logger.Info("user registered", zap.Uint("user_id", user.ID))
		if _, ok := admins[strings.ToLower(user.Email)]; !ok {
			return
		}
		if err := db.Model(user).Update("is_admin", true).Error; err != nil {
			logger.Warn("promote admin failed", zap.Uint("user_id", user.ID), zap.Error(err))
			return
		}
		user.IsAdmin = true
	})

	util.Sig().Connect(models.SigUserLogin, func(sender any, params ...any) {
		if user, ok := sender.(*models.User); ok {
			logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.Bool("admin", user.IsAdmin))
		}
	})
}
