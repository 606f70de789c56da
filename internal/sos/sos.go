package sos

import (
	"context"
	"net/http"
	"time"

	"HerShield/internal/models"
	apperrors "HerShield/pkg/errors"
	"HerShield/pkg/logger"
	"HerShield/pkg/metrics"
	"HerShield/pkg/notification"
	"HerShield/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingLocation = apperrors.WithCode(http.StatusBadRequest, "Missing location or timestamp")
	ErrNoContacts      = apperrors.WithCode(http.StatusBadRequest, "No emergency contacts found")
)

func invalidLocation(err error) error {
	return apperrors.WithCodef(http.StatusBadRequest, "Invalid location: %v", err)
}

// Notifier is the part of the SMS gateway the orchestrator needs.
type Notifier interface {
	Send(ctx context.Context, to, message string) bool
}

// Orchestrator runs SOS triggers and location updates. Contacts live in db,
// alerts in alertDB (which may be the same handle).
type Orchestrator struct {
	db      *gorm.DB
	alertDB *gorm.DB
	sms     Notifier
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrchestrator(db, alertDB *gorm.DB, sms Notifier, m *metrics.Metrics) *Orchestrator {
	if alertDB == nil {
		alertDB = db
	}
	return &Orchestrator{db: db, alertDB: alertDB, sms: sms, metrics: m, now: time.Now}
}

type TriggerResult struct {
	NoContacts       bool
	AlertID          uint
	ContactsNotified int
	TotalContacts    int
	UserConfirmed    bool
}

type LocationUpdateResult struct {
	NotificationsSent int
	AlertUpdated      bool
}

// Trigger notifies every contact of user in priority order, records one
// alert and confirms back to the user. Individual send failures only lower
// ContactsNotified. The workflow runs to completion even when ctx is
// cancelled, a dropped client connection must not stop the fan-out.
func (o *Orchestrator) Trigger(ctx context.Context, user *models.User, req TriggerRequest) (*TriggerResult, error) {
	ctx = context.WithoutCancel(ctx)
	loc, err := parseFix(req.Location, req.Timestamp)
	if err != nil {
		o.metrics.RecordSOS("invalid")
		return nil, err
	}

	contacts, err := models.ListContacts(o.db.WithContext(ctx), user.ID)
	if err != nil {
		o.metrics.RecordSOS("error")
		return nil, err
	}
	if len(contacts) == 0 {
		o.metrics.RecordSOS("no_contacts")
		logger.Warn("sos without contacts", zap.Uint("user_id", user.ID))
		return &TriggerResult{NoContacts: true}, nil
	}

	ts := req.Timestamp.Raw
	notified := 0
	for _, contact := range contacts {
		if !o.sms.Send(ctx, contact.Phone, notification.EmergencyAlert(user.Name, loc, ts, contact.Relationship)) {
			logger.Warn("emergency alert not delivered",
				zap.Uint("user_id", user.ID), zap.Uint("contact_id", contact.ID))
			continue
		}
		notified++
		o.sms.Send(ctx, contact.Phone, notification.FollowUpInstructions(user.Name, loc))
	}

	priority := models.AlertPriorityHigh
	if req.Emergency != nil && !*req.Emergency {
		priority = models.AlertPriorityNormal
	}
	uid := user.ID
	alert := &models.Alert{
		UserID:       &uid,
		Name:         user.Name,
		Location:     loc,
		Timestamp:    req.Timestamp.Time(o.now()),
		ReportedTime: ts,
		Status:       models.AlertStatusActive,
		Priority:     priority,
	}
	alertID, err := models.CreateAlert(o.alertDB.WithContext(ctx), alert)
	if err != nil {
		// contacts were already texted; surface the failure so the client can retry
		o.metrics.RecordSOS("error")
		return nil, err
	}

	confirmed := false
	if user.Phone != "" {
		confirmed = o.sms.Send(ctx, user.Phone, notification.AlertConfirmation(user.Name, notified))
	}
	if !confirmed {
		logger.Warn("sos confirmation not delivered", zap.Uint("user_id", user.ID), zap.Uint("alert_id", alertID))
	}

	result := &TriggerResult{
		AlertID:          alertID,
		ContactsNotified: notified,
		TotalContacts:    len(contacts),
		UserConfirmed:    confirmed,
	}
	o.metrics.RecordSOS("triggered")
	logger.Info("sos triggered",
		zap.Uint("user_id", user.ID), zap.Uint("alert_id", alertID),
		zap.Int("notified", notified), zap.Int("total", len(contacts)))
	util.Sig().Emit(models.SigAlertTriggered, alert, result)
	return result, nil
}

// UpdateLocation texts the new fix to every contact and moves the most recent
// active alert, if any. No confirmation goes back to the user.
func (o *Orchestrator) UpdateLocation(ctx context.Context, user *models.User, req LocationUpdateRequest) (*LocationUpdateResult, error) {
	ctx = context.WithoutCancel(ctx)
	loc, err := parseFix(req.Location, req.Timestamp)
	if err != nil {
		o.metrics.RecordLocationUpdate("invalid")
		return nil, err
	}
	contacts, err := models.ListContacts(o.db.WithContext(ctx), user.ID)
	if err != nil {
		o.metrics.RecordLocationUpdate("error")
		return nil, err
	}
	if len(contacts) == 0 {
		o.metrics.RecordLocationUpdate("no_contacts")
		return nil, ErrNoContacts
	}

	msg := notification.LocationUpdate(user.Name, loc, req.Timestamp.Raw)
	sent := 0
	for _, contact := range contacts {
		if o.sms.Send(ctx, contact.Phone, msg) {
			sent++
		}
	}

	rows, err := models.UpdateActiveAlertLocation(o.alertDB.WithContext(ctx), user.ID, loc,
		req.Timestamp.Time(o.now()), req.Timestamp.Raw)
	if err != nil {
		o.metrics.RecordLocationUpdate("error")
		return nil, err
	}
	result := &LocationUpdateResult{NotificationsSent: sent, AlertUpdated: rows > 0}
	o.metrics.RecordLocationUpdate("updated")
	if result.AlertUpdated {
		util.Sig().Emit(models.SigAlertUpdated, user, loc)
	}
	return result, nil
}

// Resolve closes the user's active alert as resolved or cancelled.
func (o *Orchestrator) Resolve(ctx context.Context, user *models.User, status string) (*models.Alert, error) {
	alert, err := models.ResolveActiveAlert(o.alertDB.WithContext(ctx), user.ID, status)
	if err != nil {
		return nil, err
	}
	logger.Info("alert closed by user", zap.Uint("alert_id", alert.ID), zap.String("status", status))
	util.Sig().Emit(models.SigAlertClosed, alert)
	return alert, nil
}

// ExpireStale is the scheduler job body.
func (o *Orchestrator) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	n, err := models.ExpireStaleAlerts(o.alertDB.WithContext(ctx), o.now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	o.metrics.RecordAlertsExpired(n)
	if n > 0 {
		logger.Info("stale alerts expired", zap.Int64("count", n))
	}
	return n, nil
}
