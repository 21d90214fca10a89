package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is a directory record for a patient account.
type Patient struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FirstName string `gorm:"type:text;not null" json:"firstName"`
	LastName  string `gorm:"type:text;not null" json:"lastName"`
	Email     string `gorm:"uniqueIndex;type:varchar(190);not null" json:"email"`
}

// BeforeCreate generates an ID for new patients.
func (p *Patient) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// DisplayName returns "First Last".
func (p *Patient) DisplayName() string {
	return joinName(p.FirstName, p.LastName)
}

// Clinician is a directory record for a clinician account.
type Clinician struct {
	ID            string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FirstName     string `gorm:"type:text;not null" json:"firstName"`
	LastName      string `gorm:"type:text;not null" json:"lastName"`
	Email         string `gorm:"uniqueIndex;type:varchar(190);not null" json:"email"`
	Specialty     string `gorm:"type:text" json:"specialty"`
	LicenseNumber string `gorm:"index;type:varchar(64)" json:"licenseNumber"`
}

// BeforeCreate generates an ID for new clinicians.
func (c *Clinician) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// DisplayName returns "First Last".
func (c *Clinician) DisplayName() string {
	return joinName(c.FirstName, c.LastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
