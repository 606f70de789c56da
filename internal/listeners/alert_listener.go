package listeners

import (
	"time"

	"HerShield/internal/models"
	"HerShield/internal/sos"
	"HerShield/pkg/geo"
	"HerShield/pkg/logger"
	"HerShield/pkg/sse"
	"HerShield/pkg/util"

	"go.uber.org/zap"
)

// AlertEvent is the payload pushed to the admin live feed.
type AlertEvent struct {
	AlertID          uint      `json:"alert_id,omitempty"`
	UserID           uint      `json:"user_id"`
	Name             string    `json:"name,omitempty"`
	Location         string    `json:"location,omitempty"`
	MapURL           string    `json:"map_url,omitempty"`
	Status           string    `json:"status,omitempty"`
	Priority         string    `json:"priority,omitempty"`
	ContactsNotified *int      `json:"contacts_notified,omitempty"`
	TotalContacts    *int      `json:"total_contacts,omitempty"`
	At               time.Time `json:"at"`
}

func alertEvent(alert *models.Alert) AlertEvent {
	ev := AlertEvent{
		AlertID:  alert.ID,
		Name:     alert.Name,
		Location: alert.Location.String(),
		MapURL:   alert.Location.MapURL(),
		Status:   alert.Status,
		Priority: alert.Priority,
		At:       time.Now(),
	}
	if alert.UserID != nil {
		ev.UserID = *alert.UserID
	}
	return ev
}

func publish(hub *sse.Hub, name string, ev AlertEvent) {
	if hub == nil {
		return
	}
	if _, err := hub.PublishJSON(name, ev); err != nil {
		logger.Warn("publish alert event failed", zap.String("event", name), zap.Error(err))
	}
}

// InitAlertListeners forwards alert lifecycle signals to the admin feed.
func InitAlertListeners(hub *sse.Hub) {
	util.Sig().Connect(models.SigAlertTriggered, func(sender any, params ...any) {
		alert, ok := sender.(*models.Alert)
		if !ok {
			return
		}
		ev := alertEvent(alert)
		if len(params) > 0 {
			if res, ok := params[0].(*sos.TriggerResult); ok {
				ev.ContactsNotified = &res.ContactsNotified
				ev.TotalContacts = &res.TotalContacts
			}
		}
		publish(hub, models.SigAlertTriggered, ev)
	})

	util.Sig().Connect(models.SigAlertUpdated, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok {
			return
		}
		ev := AlertEvent{UserID: user.ID, Name: user.Name, Status: models.AlertStatusActive, At: time.Now()}
		if len(params) > 0 {
			if loc, ok := params[0].(geo.Location); ok {
				ev.Location = loc.String()
				ev.MapURL = loc.MapURL()
			}
		}
		publish(hub, models.SigAlertUpdated, ev)
	})

	util.Sig().Connect(models.SigAlertClosed, func(sender any, params ...any) {
		if alert, ok := sender.(*models.Alert); ok {
			logger.Info("alert closed", zap.Uint("alert_id", alert.ID), zap.String("status", alert.Status))
			publish(hub, models.SigAlertClosed, alertEvent(alert))
		}
	})
}
