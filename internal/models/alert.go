package models

import (
	"errors"
	"net/http"
	"time"

	apperrors "HerShield/pkg/errors"
	"HerShield/pkg/geo"

	"gorm.io/gorm"
)

const (
	SigAlertTriggered = "alert.triggered"
	SigAlertUpdated   = "alert.location_updated"
	SigAlertClosed    = "alert.closed"
)

const (
	AlertStatusActive    = "active"
	AlertStatusResolved  = "resolved"
	AlertStatusCancelled = "cancelled"
	AlertStatusExpired   = "expired"

	AlertPriorityNormal = "normal"
	AlertPriorityHigh   = "high"
)

// action log entries
const (
	AlertActionTriggered = "triggered"
	AlertActionLocation  = "location_update"
	AlertActionResolved  = "resolved"
	AlertActionCancelled = "cancelled"
	AlertActionExpired   = "expired"
)

var (
	ErrAlertNotFound     = apperrors.WithCode(http.StatusNotFound, "Alert not found")
	ErrNoActiveAlert     = apperrors.WithCode(http.StatusNotFound, "No active alert")
	ErrAlertNotActive    = apperrors.WithCode(http.StatusConflict, "Alert is no longer active")
	ErrInvalidTransition = apperrors.WithCode(http.StatusBadRequest, "Status must be resolved or cancelled")
)

// SOS Alert（求助警报）
//
// Alerts may live in a separate database, so UserID is not a foreign key.
type Alert struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	UserID   *uint        `json:"user_id" gorm:"index"`
	Name     string       `json:"name" gorm:"size:128;not null"`
	Location geo.Location `json:"location" gorm:"type:varchar(64);not null"`
	// Timestamp is the client fix time, or the server time when the client
	// value did not parse. ReportedTime keeps the client string verbatim.
	Timestamp    time.Time  `json:"timestamp" gorm:"index"`
	ReportedTime string     `json:"reported_time" gorm:"size:64"`
	Status       string     `json:"status" gorm:"size:16;index;default:active;not null"`
	Priority     string     `json:"priority" gorm:"size:16;default:normal;not null"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// 警报的处理记录（触发、位置更新、解除、过期）
type AlertAction struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AlertID    uint      `json:"alert_id" gorm:"index;not null"`
	Action     string    `json:"action" gorm:"size:32;not null"`
	ActorID    *uint     `json:"actor_id"` // nil for the scheduler
	Note       string    `json:"note" gorm:"size:255"`
	ActionTime time.Time `json:"action_time"`
}

type AlertFilter struct {
	Status string
	UserID uint
	Limit  int
	Offset int
}

func recordAction(tx *gorm.DB, alertID uint, action string, actor *uint, note string) error {
	return tx.Create(&AlertAction{
		AlertID:    alertID,
		Action:     action,
		ActorID:    actor,
		Note:       note,
		ActionTime: time.Now(),
	}).Error
}

// CreateAlert stores alert and its "triggered" action, returning the new id.
func CreateAlert(db *gorm.DB, alert *Alert) (uint, error) {
	if alert.Status == "" {
		alert.Status = AlertStatusActive
	}
	if alert.Priority == "" {
		alert.Priority = AlertPriorityNormal
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(alert).Error; err != nil {
			return err
		}
		return recordAction(tx, alert.ID, AlertActionTriggered, alert.UserID, alert.Location.String())
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "create alert")
	}
	return alert.ID, nil
}

// UpdateActiveAlertLocation moves the user's most recent active alert. It
// returns the rows affected; zero means there was no active alert.
func UpdateActiveAlertLocation(db *gorm.DB, userID uint, loc geo.Location, ts time.Time, reported string) (int64, error) {
	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var alert Alert
		err := tx.Where("user_id = ? AND status = ?", userID, AlertStatusActive).
			Order("id DESC").
			First(&alert).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res := tx.Model(&Alert{}).Where("id = ? AND status = ?", alert.ID, AlertStatusActive).
			Updates(map[string]interface{}{
				"location":      loc,
				"timestamp":     ts,
				"reported_time": reported,
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		uid := userID
		return recordAction(tx, alert.ID, AlertActionLocation, &uid, loc.String())
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "update alert location")
	}
	return affected, nil
}

// ListAlerts returns alerts newest first.
func ListAlerts(db *gorm.DB, f AlertFilter) ([]Alert, error) {
	q := db.Model(&Alert{}).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var alerts []Alert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(err, "list alerts")
	}
	return alerts, nil
}

func GetAlert(db *gorm.DB, id uint) (*Alert, error) {
	var alert Alert
	err := db.First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "load alert")
	}
	return &alert, nil
}

func GetActiveAlert(db *gorm.DB, userID uint) (*Alert, error) {
	var alert Alert
	err := db.Where("user_id = ? AND status = ?", userID, AlertStatusActive).Order("id DESC").First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveAlert
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "load active alert")
	}
	return &alert, nil
}

func ListAlertActions(db *gorm.DB, alertID uint) ([]AlertAction, error) {
	var actions []AlertAction
	if err := db.Where("alert_id = ?", alertID).Order("id ASC").Find(&actions).Error; err != nil {
		return nil, apperrors.Wrap(err, "list alert actions")
	}
	return actions, nil
}

func closingAction(status string) (string, error) {
	switch status {
	case AlertStatusResolved:
		return AlertActionResolved, nil
	case AlertStatusCancelled:
		return AlertActionCancelled, nil
	}
	return "", ErrInvalidTransition
}

func closeAlert(tx *gorm.DB, alert *Alert, status string, actor *uint, note string) error {
	action, err := closingAction(status)
	if err != nil {
		return err
	}
	now := time.Now()
	res := tx.Model(&Alert{}).Where("id = ? AND status = ?", alert.ID, AlertStatusActive).
		Updates(map[string]interface{}{"status": status, "resolved_at": now})
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "close alert")
	}
	if res.RowsAffected == 0 {
		return ErrAlertNotActive
	}
	alert.Status = status
	alert.ResolvedAt = &now
	return recordAction(tx, alert.ID, action, actor, note)
}

// ResolveActiveAlert lets a user close their own most recent active alert.
func ResolveActiveAlert(db *gorm.DB, userID uint, status string) (*Alert, error) {
	if _, err := closingAction(status); err != nil {
		return nil, err
	}
	var alert *Alert
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if alert, err = GetActiveAlert(tx, userID); err != nil {
			return err
		}
		uid := userID
		return closeAlert(tx, alert, status, &uid, "closed by user")
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// ResolveAlert is the admin transition for any active alert.
func ResolveAlert(db *gorm.DB, id uint, status string, adminID uint) (*Alert, error) {
	if _, err := closingAction(status); err != nil {
		return nil, err
	}
	var alert *Alert
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if alert, err = GetAlert(tx, id); err != nil {
			return err
		}
		if alert.Status != AlertStatusActive {
			return ErrAlertNotActive
		}
		aid := adminID
		return closeAlert(tx, alert, status, &aid, "closed by admin")
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// ExpireStaleAlerts marks active alerts created before cutoff as expired.
func ExpireStaleAlerts(db *gorm.DB, cutoff time.Time) (int64, error) {
	var expired int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&Alert{}).
			Where("status = ? AND created_at < ?", AlertStatusActive, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		now := time.Now()
		res := tx.Model(&Alert{}).Where("id IN ? AND status = ?", ids, AlertStatusActive).
			Updates(map[string]interface{}{"status": AlertStatusExpired, "resolved_at": now})
		if res.Error != nil {
			return res.Error
		}
		expired = res.RowsAffected
		actions := make([]AlertAction, 0, len(ids))
		for _, id := range ids {
			actions = append(actions, AlertAction{AlertID: id, Action: AlertActionExpired, Note: "expired by scheduler", ActionTime: now})
		}
		return tx.Create(&actions).Error
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "expire alerts")
	}
	return expired, nil
}
