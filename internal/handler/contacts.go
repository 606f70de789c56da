package handlers

import (
	"errors"
	"strconv"

	"HerShield/internal/models"

	"github.com/gin-gonic/gin"
)

const contactsPage = "/emergency-contacts"

func contactID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	user := models.CurrentUser(c)
	contacts, err := models.ListContacts(h.db, user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	renderPage(c, "emergency_contacts", gin.H{
		"contacts":            contacts,
		"predefined_contacts": models.PredefinedContacts(),
		"max_contacts":        models.MaxContactsPerUser,
	})
}

func (h *Handlers) handleAddContact(c *gin.Context) {
	user := models.CurrentUser(c)
	var form models.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, contactsPage, flashDanger, models.ErrContactFieldsRequired.Message)
		return
	}
	if _, err := models.AddContact(h.db, user.ID, form); err != nil {
		if errors.Is(err, models.ErrContactLimit) {
			redirectWithFlash(c, contactsPage, flashWarning, models.ErrContactLimit.Message)
			return
		}
		redirectWithError(c, contactsPage, err, "Error adding contact. Please try again.")
		return
	}
	redirectWithFlash(c, contactsPage, flashSuccess, "Emergency contact added successfully!")
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	user := models.CurrentUser(c)
	id, ok := contactID(c)
	if !ok {
		redirectWithFlash(c, contactsPage, flashDanger, models.ErrContactNotFound.Message)
		return
	}
	if err := models.DeleteContact(h.db, id, user.ID); err != nil {
		redirectWithError(c, contactsPage, err, "Error deleting contact. Please try again.")
		return
	}
	redirectWithFlash(c, contactsPage, flashSuccess, "Contact deleted successfully!")
}

func (h *Handlers) handleEditContactPage(c *gin.Context) {
	user := models.CurrentUser(c)
	id, ok := contactID(c)
	if !ok {
		redirectWithFlash(c, contactsPage, flashDanger, models.ErrContactNotFound.Message)
		return
	}
	contact, err := models.GetContact(h.db, id, user.ID)
	if err != nil {
		redirectWithError(c, contactsPage, err, "Error loading contact. Please try again.")
		return
	}
	renderPage(c, "edit_contact", gin.H{"contact": contact})
}

func (h *Handlers) handleEditContact(c *gin.Context) {
	user := models.CurrentUser(c)
	id, ok := contactID(c)
	if !ok {
		redirectWithFlash(c, contactsPage, flashDanger, models.ErrContactNotFound.Message)
		return
	}
	editPage := "/edit-contact/" + strconv.FormatUint(uint64(id), 10)

	var form models.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, editPage, flashDanger, models.ErrContactFieldsRequired.Message)
		return
	}
	if _, err := models.UpdateContact(h.db, id, user.ID, form); err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			redirectWithFlash(c, contactsPage, flashDanger, models.ErrContactNotFound.Message)
			return
		}
		redirectWithError(c, editPage, err, "Error updating contact. Please try again.")
		return
	}
	redirectWithFlash(c, contactsPage, flashSuccess, "Contact updated successfully!")
}

