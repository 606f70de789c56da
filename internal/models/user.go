package models

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	apperrors "HerShield/pkg/errors"
	"HerShield/pkg/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SigUserCreate = "user.create"
	SigUserLogin  = "user.login"
)

const minPasswordLength = 6

var (
	ErrSignupFieldsRequired = apperrors.WithCode(http.StatusBadRequest, "All fields are required")
	ErrInvalidEmail         = apperrors.WithCode(http.StatusBadRequest, "Please enter a valid email address")
	ErrPasswordMismatch     = apperrors.WithCode(http.StatusBadRequest, "Passwords do not match")
	ErrPasswordTooShort     = apperrors.WithCode(http.StatusBadRequest, "Password must be at least 6 characters")
	ErrEmailExists          = apperrors.WithCode(http.StatusBadRequest, "Email already exists")
	ErrInvalidCredentials   = apperrors.WithCode(http.StatusUnauthorized, "Invalid email or password")
	ErrUserNotFound         = apperrors.WithCode(http.StatusNotFound, "User not found")
)

type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Email     string     `json:"email" gorm:"size:128;uniqueIndex;not null"`
	Phone     string     `json:"phone" gorm:"size:32;not null"`
	Password  string     `json:"-" gorm:"size:128;not null"`
	IsAdmin   bool       `json:"is_admin"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SignupForm struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone" json:"phone"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

type LoginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(user *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser validates the signup form and stores a new user. Emits SigUserCreate.
func CreateUser(db *gorm.DB, form SignupForm) (*User, error) {
	name := strings.TrimSpace(form.Name)
	email := normalizeEmail(form.Email)
	phone := strings.TrimSpace(form.Phone)
	if name == "" || email == "" || phone == "" || form.Password == "" {
		return nil, ErrSignupFieldsRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if form.Password != form.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(form.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	var count int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(err, "check email")
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hashed, err := HashPassword(form.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "hash password")
	}
	user := &User{Name: name, Email: email, Phone: phone, Password: hashed}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, apperrors.Wrap(err, "create user")
	}
	util.Sig().Emit(SigUserCreate, user)
	return user, nil
}

// Authenticate checks credentials and stamps LastLogin. Unknown email and
// wrong password produce the same error.
func Authenticate(db *gorm.DB, form LoginForm) (*User, error) {
	user, err := GetUserByEmail(db, form.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user, form.Password) {
		return nil, ErrInvalidCredentials
	}
	now := time.Now()
	if err := db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, apperrors.Wrap(err, "update last login")
	}
	user.LastLogin = &now
	util.Sig().Emit(SigUserLogin, user)
	return user, nil
}

func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "load user")
	}
	return &user, nil
}

func GetUserByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	err := db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "load user")
	}
	return &user, nil
}

// SyncAdmins sets IsAdmin for exactly the listed emails.
func SyncAdmins(db *gorm.DB, emails []string) error {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}
	return db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&User{}).Where("is_admin = ?", true)
		if len(normalized) > 0 {
			q = q.Where("email NOT IN ?", normalized)
		}
		if err := q.Update("is_admin", false).Error; err != nil {
			return err
		}
		if len(normalized) == 0 {
			return nil
		}
		return tx.Model(&User{}).Where("email IN ?", normalized).Update("is_admin", true).Error
	})
}
