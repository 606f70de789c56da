package sos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"HerShield/internal/models"
	"HerShield/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sent struct{ to, body string }

type fakeNotifier struct {
	mu   sync.Mutex
	fail map[string]bool
	msgs []sent
}

func (f *fakeNotifier) Send(_ context.Context, to, body string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{to, body})
	return !f.fail[to]
}

func (f *fakeNotifier) to(phone string) []string {
	var out []string
	for _, m := range f.msgs {
		if m.to == phone {
			out = append(out, m.body)
		}
	}
	return out
}

func setup(t *testing.T, contacts int) (*gorm.DB, *models.User) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.Migrate(db, db))

	user, err := models.CreateUser(db, models.SignupForm{
		Name: "Asha", Email: "asha@example.com", Phone: "9000000099",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	for i := 0; i < contacts; i++ {
		_, err := models.AddContact(db, user.ID, models.ContactForm{
			Name: fmt.Sprintf("C%d", i), Phone: fmt.Sprintf("900000000%d", i),
			Relationship: "Friend", Priority: fmt.Sprint(contacts - i),
		})
		require.NoError(t, err)
	}
	return db, user
}

func fix(lat, lng float64) *LocationInput {
	return &LocationInput{Latitude: &lat, Longitude: &lng}
}

func countAlerts(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&models.Alert{}).Count(&n).Error)
	return n
}

func TestTriggerValidation(t *testing.T) {
	db, user := setup(t, 1)
	o := NewOrchestrator(db, nil, &fakeNotifier{}, nil)

	lat := 12.0
	cases := []TriggerRequest{
		{Timestamp: Timestamp{Raw: "now"}},
		{Location: &LocationInput{Latitude: &lat}, Timestamp: Timestamp{Raw: "now"}},
		{Location: fix(1, 2)},
	}
	for _, req := range cases {
		_, err := o.Trigger(context.Background(), user, req)
		assert.ErrorIs(t, err, ErrMissingLocation)
	}

	_, err := o.Trigger(context.Background(), user, TriggerRequest{Location: fix(95, 2), Timestamp: Timestamp{Raw: "now"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid location")
	assert.Zero(t, countAlerts(t, db))
}

func TestTriggerWithoutContacts(t *testing.T) {
	db, user := setup(t, 0)
	sms := &fakeNotifier{}
	o := NewOrchestrator(db, db, sms, nil)

	res, err := o.Trigger(context.Background(), user, TriggerRequest{Location: fix(28.6, 77.2), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	assert.True(t, res.NoContacts)
	assert.Zero(t, res.ContactsNotified)
	assert.Zero(t, countAlerts(t, db))
	assert.Empty(t, sms.msgs)
}

func TestTriggerPartialFailures(t *testing.T) {
	db, user := setup(t, 4)
	sms := &fakeNotifier{fail: map[string]bool{"9000000001": true, "9000000003": true}}
	o := NewOrchestrator(db, db, sms, nil)

	var emitted int
	util.Sig().Connect(models.SigAlertTriggered, func(sender any, params ...any) { emitted++ })
	defer util.Sig().Clear(models.SigAlertTriggered)

	res, err := o.Trigger(context.Background(), user, TriggerRequest{
		Location:  fix(28.6139, 77.209),
		Timestamp: Timestamp{Raw: "2024-03-01T10:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ContactsNotified)
	assert.Equal(t, 4, res.TotalContacts)
	assert.True(t, res.UserConfirmed)
	assert.Equal(t, 1, emitted)

	// delivered contacts get alert + follow-up, failed ones only the alert
	assert.Len(t, sms.to("9000000000"), 2)
	assert.Len(t, sms.to("9000000001"), 1)
	assert.Contains(t, sms.to("9000000002")[0], "https://maps.google.com/?q=28.6139,77.209")

	// priority order: contact 3 has priority 1
	assert.Equal(t, "9000000003", sms.msgs[0].to)

	confirmations := sms.to(user.Phone)
	require.Len(t, confirmations, 1)
	assert.Contains(t, confirmations[0], "sent to 2 emergency contacts")

	require.EqualValues(t, 1, countAlerts(t, db))
	alert, err := models.GetAlert(db, res.AlertID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, models.AlertPriorityHigh, alert.Priority)
	assert.Equal(t, "28.6139,77.209", alert.Location.String())
	assert.Equal(t, 2024, alert.Timestamp.Year())
}

func TestTriggerConfirmationFailureIsReported(t *testing.T) {
	db, user := setup(t, 1)
	sms := &fakeNotifier{fail: map[string]bool{"9000000099": true}}
	o := NewOrchestrator(db, db, sms, nil)

	f := false
	res, err := o.Trigger(context.Background(), user, TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "garbage"}, Emergency: &f})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ContactsNotified)
	assert.False(t, res.UserConfirmed)

	alert, _ := models.GetAlert(db, res.AlertID)
	assert.Equal(t, models.AlertPriorityNormal, alert.Priority)
	assert.Equal(t, "garbage", alert.ReportedTime)
}

func TestTriggerAllFail(t *testing.T) {
	db, user := setup(t, 2)
	sms := &fakeNotifier{fail: map[string]bool{"9000000000": true, "9000000001": true}}
	o := NewOrchestrator(db, db, sms, nil)

	res, err := o.Trigger(context.Background(), user, TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	assert.Zero(t, res.ContactsNotified)
	assert.False(t, res.NoContacts)
	assert.EqualValues(t, 1, countAlerts(t, db))
	assert.Len(t, sms.to(user.Phone), 1)
}

func TestUpdateLocation(t *testing.T) {
	db, user := setup(t, 2)
	sms := &fakeNotifier{}
	o := NewOrchestrator(db, db, sms, nil)
	req := LocationUpdateRequest{Location: fix(19.07, 72.87), Timestamp: Timestamp{Raw: "later"}}

	// no active alert: still notifies, store untouched
	res, err := o.UpdateLocation(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NotificationsSent)
	assert.False(t, res.AlertUpdated)
	assert.Zero(t, countAlerts(t, db))
	assert.True(t, strings.HasPrefix(sms.msgs[0].body, "📍 Location Update for Asha:"))

	_, err = o.Trigger(context.Background(), user, TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	sms.msgs = nil

	res, err = o.UpdateLocation(context.Background(), user, req)
	require.NoError(t, err)
	assert.True(t, res.AlertUpdated)
	assert.Empty(t, sms.to(user.Phone))

	active, err := models.GetActiveAlert(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.07,72.87", active.Location.String())
}

func TestUpdateLocationWithoutContacts(t *testing.T) {
	db, user := setup(t, 0)
	o := NewOrchestrator(db, db, &fakeNotifier{}, nil)
	_, err := o.UpdateLocation(context.Background(), user, LocationUpdateRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "x"}})
	assert.ErrorIs(t, err, ErrNoContacts)
}

func TestResolveAndExpire(t *testing.T) {
	db, user := setup(t, 1)
	o := NewOrchestrator(db, db, &fakeNotifier{}, nil)

	_, err := o.Resolve(context.Background(), user, models.AlertStatusResolved)
	assert.ErrorIs(t, err, models.ErrNoActiveAlert)

	_, err = o.Trigger(context.Background(), user, TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	alert, err := o.Resolve(context.Background(), user, models.AlertStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, alert.Status)

	_, err = o.Trigger(context.Background(), user, TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	o.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err := o.ExpireStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTimestampDecoding(t *testing.T) {
	var req TriggerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"location":{"latitude":1,"longitude":2},"timestamp":1709287200000}`), &req))
	assert.Equal(t, "1709287200000", req.Timestamp.Raw)
	assert.Equal(t, int64(1709287200000), req.Timestamp.Time(time.Time{}).UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":"2024-03-01 10:00:00"}`), &req))
	assert.Equal(t, 10, req.Timestamp.Time(time.Time{}).Hour())

	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now, Timestamp{Raw: "whenever"}.Time(now))
	assert.Equal(t, now, Timestamp{Raw: "2024"}.Time(now))
	assert.Equal(t, now, Timestamp{Raw: "17092872000"}.Time(now))
}

// cancellingNotifier cancels the request context after the first send and
// records whether any later send saw a cancelled context.
type cancellingNotifier struct {
	fakeNotifier
	cancel    context.CancelFunc
	cancelled int
}

func (n *cancellingNotifier) Send(ctx context.Context, to, body string) bool {
	if ctx.Err() != nil {
		n.cancelled++
		return false
	}
	ok := n.fakeNotifier.Send(ctx, to, body)
	n.cancel()
	return ok
}

func TestTriggerSurvivesClientDisconnect(t *testing.T) {
	db, user := setup(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sms := &cancellingNotifier{cancel: cancel}
	o := NewOrchestrator(db, db, sms, nil)

	res, err := o.Trigger(ctx, user, TriggerRequest{Location: fix(28.6, 77.2), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ContactsNotified)
	assert.True(t, res.UserConfirmed)
	assert.Zero(t, sms.cancelled)
	assert.EqualValues(t, 1, countAlerts(t, db))
	assert.Len(t, sms.to(user.Phone), 1)
}

func TestUpdateLocationSurvivesClientDisconnect(t *testing.T) {
	db, user := setup(t, 3)
	_, err := NewOrchestrator(db, db, &fakeNotifier{}, nil).Trigger(context.Background(), user,
		TriggerRequest{Location: fix(1, 1), Timestamp: Timestamp{Raw: "now"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sms := &cancellingNotifier{cancel: cancel}
	o := NewOrchestrator(db, db, sms, nil)

	res, err := o.UpdateLocation(ctx, user, LocationUpdateRequest{Location: fix(19.07, 72.87), Timestamp: Timestamp{Raw: "later"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.NotificationsSent)
	assert.True(t, res.AlertUpdated)
	assert.Zero(t, sms.cancelled)
}
