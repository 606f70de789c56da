package models

import (
	"fmt"
	"testing"
	"time"

	apperrors "HerShield/pkg/errors"
	"HerShield/pkg/geo"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Migrate(db, db))
	return db
}

func newUser(t *testing.T, db *gorm.DB, email string) *User {
	t.Helper()
	u, err := CreateUser(db, SignupForm{
		Name: "Asha", Email: email, Phone: "9876543210",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return u
}

func contactForm(phone string) ContactForm {
	return ContactForm{Name: "Mom", Phone: phone, Relationship: "Mother"}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	u := newUser(t, db, " Asha@Example.com ")
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.Password)

	_, err := CreateUser(db, SignupForm{Name: "A", Email: "asha@example.com", Phone: "1", Password: "secret1", ConfirmPassword: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = CreateUser(db, SignupForm{Name: "B", Email: "b@example.com", Phone: "1", Password: "secret1", ConfirmPassword: "other"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	got, err := Authenticate(db, LoginForm{Email: "ASHA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLogin)

	_, err = Authenticate(db, LoginForm{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Authenticate(db, LoginForm{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSyncAdmins(t *testing.T) {
	db := newTestDB(t)
	a := newUser(t, db, "a@example.com")
	b := newUser(t, db, "b@example.com")

	require.NoError(t, SyncAdmins(db, []string{"A@example.com"}))
	a, _ = GetUserByID(db, a.ID)
	b, _ = GetUserByID(db, b.ID)
	assert.True(t, a.IsAdmin)
	assert.False(t, b.IsAdmin)

	require.NoError(t, SyncAdmins(db, nil))
	a, _ = GetUserByID(db, a.ID)
	assert.False(t, a.IsAdmin)
}

func TestValidPhone(t *testing.T) {
	for _, p := range []string{"9876543210", "+919876543210", "919876543210", "09876543210", "6000000000"} {
		assert.True(t, ValidPhone(p), p)
	}
	for _, p := range []string{"5876543210", "987654321", "98765432100", "+449876543210", "98765 43210", "abcdefghij", ""} {
		assert.False(t, ValidPhone(p), p)
	}
}

func TestAddContactValidation(t *testing.T) {
	db := newTestDB(t)
	u := newUser(t, db, "a@example.com")

	_, err := AddContact(db, u.ID, ContactForm{Name: " ", Phone: "9876543210", Relationship: "x"})
	assert.ErrorIs(t, err, ErrContactFieldsRequired)

	_, err = AddContact(db, u.ID, contactForm("12345"))
	assert.ErrorIs(t, err, ErrInvalidPhone)

	f := contactForm("9876543210")
	f.Priority = "zero"
	_, err = AddContact(db, u.ID, f)
	assert.ErrorIs(t, err, ErrInvalidPriority)
	f.Priority = "0"
	_, err = AddContact(db, u.ID, f)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	f.Priority = ""
	c, err := AddContact(db, u.ID, f)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Priority)
	assert.Equal(t, 400, apperrors.GetCode(ErrInvalidPriority))
}

func TestContactLimit(t *testing.T) {
	db := newTestDB(t)
	u := newUser(t, db, "a@example.com")
	for i := 0; i < MaxContactsPerUser; i++ {
		_, err := AddContact(db, u.ID, contactForm(fmt.Sprintf("98765432%02d", i)))
		require.NoError(t, err)
	}
	_, err := AddContact(db, u.ID, contactForm("9123456789"))
	assert.ErrorIs(t, err, ErrContactLimit)

	n, err := CountContacts(db, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, MaxContactsPerUser, n)
}

func TestDuplicatePhonePerUser(t *testing.T) {
	db := newTestDB(t)
	a := newUser(t, db, "a@example.com")
	b := newUser(t, db, "b@example.com")

	_, err := AddContact(db, a.ID, contactForm("9876543210"))
	require.NoError(t, err)
	_, err = AddContact(db, a.ID, contactForm("+919876543210"))
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	_, err = AddContact(db, b.ID, contactForm("9876543210"))
	assert.NoError(t, err)
}

func TestListContactsOrder(t *testing.T) {
	db := newTestDB(t)
	u := newUser(t, db, "a@example.com")
	for i, p := range []string{"3", "1", "2", "1"} {
		f := contactForm(fmt.Sprintf("900000000%d", i))
		f.Priority = p
		_, err := AddContact(db, u.ID, f)
		require.NoError(t, err)
	}
	list, err := ListContacts(db, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []int{1, 1, 2, 3}, []int{list[0].Priority, list[1].Priority, list[2].Priority, list[3].Priority})
	assert.Less(t, list[0].ID, list[1].ID)
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	owner := newUser(t, db, "a@example.com")
	other := newUser(t, db, "b@example.com")

	c, err := AddContact(db, owner.ID, contactForm("9876543210"))
	require.NoError(t, err)
	second, err := AddContact(db, owner.ID, contactForm("9876543211"))
	require.NoError(t, err)

	_, err = UpdateContact(db, c.ID, other.ID, contactForm("9123456789"))
	assert.ErrorIs(t, err, ErrContactNotFound)
	_, errMissing := UpdateContact(db, 9999, other.ID, contactForm("9123456789"))
	assert.Equal(t, apperrors.GetMessage(errMissing), apperrors.GetMessage(err))

	assert.ErrorIs(t, DeleteContact(db, c.ID, other.ID), ErrContactNotFound)
	assert.ErrorIs(t, DeleteContact(db, 9999, other.ID), ErrContactNotFound)

	_, err = UpdateContact(db, c.ID, owner.ID, contactForm("9876543211"))
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	f := contactForm("9876543210")
	f.Name = "Mother"
	f.Priority = "2"
	updated, err := UpdateContact(db, c.ID, owner.ID, f)
	require.NoError(t, err)
	assert.Equal(t, "Mother", updated.Name)
	assert.Equal(t, 2, updated.Priority)

	require.NoError(t, DeleteContact(db, second.ID, owner.ID))
	list, _ := ListContacts(db, owner.ID)
	assert.Len(t, list, 1)
}

func TestPredefinedContactsIsACopy(t *testing.T) {
	p := PredefinedContacts()
	require.Len(t, p, 5)
	p[0].Phone = "999"
	assert.Equal(t, "100", PredefinedContacts()[0].Phone)
}

func TestAlertLifecycle(t *testing.T) {
	db := newTestDB(t)
	uid := uint(7)
	loc := geo.Location{Latitude: 28.6, Longitude: 77.2}

	n, err := UpdateActiveAlertLocation(db, uid, loc, time.Now(), "now")
	require.NoError(t, err)
	assert.Zero(t, n)

	first, err := CreateAlert(db, &Alert{UserID: &uid, Name: "Asha", Location: loc, Priority: AlertPriorityHigh})
	require.NoError(t, err)
	second, err := CreateAlert(db, &Alert{UserID: &uid, Name: "Asha", Location: loc, Priority: AlertPriorityHigh})
	require.NoError(t, err)

	moved := geo.Location{Latitude: 19.07, Longitude: 72.87}
	n, err = UpdateActiveAlertLocation(db, uid, moved, time.Now(), "later")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	a1, _ := GetAlert(db, first)
	a2, _ := GetAlert(db, second)
	assert.Equal(t, loc, a1.Location)
	assert.Equal(t, moved, a2.Location)
	assert.Equal(t, "later", a2.ReportedTime)

	alerts, err := ListAlerts(db, AlertFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second, alerts[0].ID)

	_, err = ResolveActiveAlert(db, uid, "bogus")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	closed, err := ResolveActiveAlert(db, uid, AlertStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, second, closed.ID)
	assert.NotNil(t, closed.ResolvedAt)

	_, err = ResolveAlert(db, second, AlertStatusResolved, 1)
	assert.ErrorIs(t, err, ErrAlertNotActive)
	_, err = ResolveAlert(db, 999, AlertStatusResolved, 1)
	assert.ErrorIs(t, err, ErrAlertNotFound)

	resolved, err := ResolveAlert(db, first, AlertStatusResolved, 1)
	require.NoError(t, err)
	assert.Equal(t, AlertStatusResolved, resolved.Status)

	_, err = ResolveActiveAlert(db, uid, AlertStatusResolved)
	assert.ErrorIs(t, err, ErrNoActiveAlert)

	actions, err := ListAlertActions(db, second)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, []string{AlertActionTriggered, AlertActionLocation, AlertActionCancelled},
		[]string{actions[0].Action, actions[1].Action, actions[2].Action})
}

func TestExpireStaleAlerts(t *testing.T) {
	db := newTestDB(t)
	uid := uint(1)
	old, err := CreateAlert(db, &Alert{UserID: &uid, Name: "A", Location: geo.Location{Latitude: 1, Longitude: 1}})
	require.NoError(t, err)
	require.NoError(t, db.Model(&Alert{}).Where("id = ?", old).Update("created_at", time.Now().Add(-48*time.Hour)).Error)
	fresh, err := CreateAlert(db, &Alert{UserID: &uid, Name: "A", Location: geo.Location{Latitude: 1, Longitude: 1}})
	require.NoError(t, err)

	n, err := ExpireStaleAlerts(db, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	a, _ := GetAlert(db, old)
	assert.Equal(t, AlertStatusExpired, a.Status)
	b, _ := GetAlert(db, fresh)
	assert.Equal(t, AlertStatusActive, b.Status)

	n, err = ExpireStaleAlerts(db, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationHistory(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, SaveConversation(db, 3, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), i%2 == 0))
	}
	require.NoError(t, SaveConversation(db, 4, "other", "other", false))

	turns, err := RecentConversations(db, 3, 5)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	assert.Equal(t, "q6", turns[0].UserInput)
	assert.Equal(t, "q2", turns[4].UserInput)
}
