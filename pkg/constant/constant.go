package constants

// gin context keys
const (
	DbField      = "_hershield_db"
	AlertDbField = "_hershield_alert_db"
	UserField    = "_hershield_user"
	UserIDField  = "user_id"
)

// session keys
const (
	SessionName     = "hershield_session"
	SessionUserID   = "user_id"
	SessionUserName = "name"
)
