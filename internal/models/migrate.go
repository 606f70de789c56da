package models

import "gorm.io/gorm"

// Migrate creates or updates every table. alertDB may be the same handle as db.
func Migrate(db, alertDB *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &EmergencyContact{}, &ConversationHistory{}); err != nil {
		return err
	}
	if alertDB == nil {
		alertDB = db
	}
	return alertDB.AutoMigrate(&Alert{}, &AlertAction{})
}
