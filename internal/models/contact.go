package models

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "HerShield/pkg/errors"

	"gorm.io/gorm"
)

const MaxContactsPerUser = 10

// Indian mobile numbers: optional +91/91/0 prefix, ten digits starting 6-9.
var contactPhonePattern = regexp.MustCompile(`^(\+91|91|0)?[6-9]\d{9}$`)

var (
	ErrContactFieldsRequired = apperrors.WithCode(http.StatusBadRequest, "All fields are required!")
	ErrInvalidPhone          = apperrors.WithCode(http.StatusBadRequest, "Please enter a valid Indian phone number!")
	ErrInvalidPriority       = apperrors.WithCode(http.StatusBadRequest, "Priority must be a whole number of 1 or more")
	ErrDuplicatePhone        = apperrors.WithCode(http.StatusBadRequest, "A contact with this phone number already exists!")
	ErrContactLimit          = apperrors.WithCode(http.StatusBadRequest, "Maximum 10 emergency contacts allowed. Please delete some contacts first.")
	ErrContactNotFound       = apperrors.WithCode(http.StatusNotFound, "Contact not found!")
)

type EmergencyContact struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Phone        string    `json:"phone" gorm:"size:32;not null"`
	Relationship string    `json:"relationship" gorm:"size:64"`
	Priority     int       `json:"priority" gorm:"default:1;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ContactForm is the raw form input; Priority stays a string so blank and
// malformed values can be told apart.
type ContactForm struct {
	Name         string `form:"name" json:"name"`
	Phone        string `form:"phone" json:"phone"`
	Relationship string `form:"relationship" json:"relationship"`
	Priority     string `form:"priority" json:"priority"`
}

type PredefinedContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

var predefinedContacts = []PredefinedContact{
	{Name: "Police", Phone: "100", Relationship: "Emergency Service"},
	{Name: "Women Helpline", Phone: "1091", Relationship: "Emergency Service"},
	{Name: "Ambulance", Phone: "102", Relationship: "Emergency Service"},
	{Name: "Fire Department", Phone: "101", Relationship: "Emergency Service"},
	{Name: "National Emergency Number", Phone: "112", Relationship: "Emergency Service"},
}

// PredefinedContacts lists the national emergency numbers shown next to the user's own contacts.
func PredefinedContacts() []PredefinedContact {
	return append([]PredefinedContact(nil), predefinedContacts...)
}

func ValidPhone(phone string) bool {
	return contactPhonePattern.MatchString(phone)
}

// nationalNumber strips the optional prefix so "+919876543210" and
// "09876543210" compare equal.
func nationalNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 10 {
		return phone
	}
	return phone[len(phone)-10:]
}

func (f ContactForm) validate() (EmergencyContact, error) {
	c := EmergencyContact{
		Name:         strings.TrimSpace(f.Name),
		Phone:        strings.TrimSpace(f.Phone),
		Relationship: strings.TrimSpace(f.Relationship),
		Priority:     1,
	}
	if c.Name == "" || c.Phone == "" || c.Relationship == "" {
		return c, ErrContactFieldsRequired
	}
	if !ValidPhone(c.Phone) {
		return c, ErrInvalidPhone
	}
	if p := strings.TrimSpace(f.Priority); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return c, ErrInvalidPriority
		}
		c.Priority = n
	}
	return c, nil
}

// ListContacts returns the user's contacts, lowest priority number first.
func ListContacts(db *gorm.DB, userID uint) ([]EmergencyContact, error) {
	var contacts []EmergencyContact
	err := db.Where("user_id = ?", userID).Order("priority ASC, id ASC").Find(&contacts).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "list contacts")
	}
	return contacts, nil
}

func CountContacts(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.Model(&EmergencyContact{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// GetContact only finds contacts owned by userID.
func GetContact(db *gorm.DB, id, userID uint) (*EmergencyContact, error) {
	var c EmergencyContact
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "load contact")
	}
	return &c, nil
}

func phoneTaken(tx *gorm.DB, userID, exceptID uint, phone string) (bool, error) {
	var phones []string
	q := tx.Model(&EmergencyContact{}).Where("user_id = ?", userID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Pluck("phone", &phones).Error; err != nil {
		return false, err
	}
	want := nationalNumber(phone)
	for _, p := range phones {
		if nationalNumber(p) == want {
			return true, nil
		}
	}
	return false, nil
}

// AddContact validates form and stores it for userID.
func AddContact(db *gorm.DB, userID uint, form ContactForm) (*EmergencyContact, error) {
	contact, err := form.validate()
	if err != nil {
		return nil, err
	}
	contact.UserID = userID

	err = db.Transaction(func(tx *gorm.DB) error {
		taken, err := phoneTaken(tx, userID, 0, contact.Phone)
		if err != nil {
			return apperrors.Wrap(err, "check duplicate phone")
		}
		if taken {
			return ErrDuplicatePhone
		}
		n, err := CountContacts(tx, userID)
		if err != nil {
			return apperrors.Wrap(err, "count contacts")
		}
		if n >= MaxContactsPerUser {
			return ErrContactLimit
		}
		if err := tx.Create(&contact).Error; err != nil {
			return apperrors.Wrap(err, "create contact")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateContact rewrites all fields of a contact owned by userID. A foreign
// id gives ErrContactNotFound, same as a missing one.
func UpdateContact(db *gorm.DB, id, userID uint, form ContactForm) (*EmergencyContact, error) {
	fields, err := form.validate()
	if err != nil {
		return nil, err
	}
	var updated *EmergencyContact
	err = db.Transaction(func(tx *gorm.DB) error {
		existing, err := GetContact(tx, id, userID)
		if err != nil {
			return err
		}
		taken, err := phoneTaken(tx, userID, id, fields.Phone)
		if err != nil {
			return apperrors.Wrap(err, "check duplicate phone")
		}
		if taken {
			return ErrDuplicatePhone
		}
		res := tx.Model(&EmergencyContact{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"name":         fields.Name,
				"phone":        fields.Phone,
				"relationship": fields.Relationship,
				"priority":     fields.Priority,
			})
		if res.Error != nil {
			return apperrors.Wrap(res.Error, "update contact")
		}
		existing.Name, existing.Phone = fields.Name, fields.Phone
		existing.Relationship, existing.Priority = fields.Relationship, fields.Priority
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContact removes a contact owned by userID.
func DeleteContact(db *gorm.DB, id, userID uint) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&EmergencyContact{})
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "delete contact")
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
