package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Admin is the highest entity in the system. What an admin may do beyond
// managing sponsors is narrowed by the ACL.
type Admin struct {
	BaseModel
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	ACL          string `json:"ACL" gorm:"not null"`
}

// Company is the organisation a sponsor represents
type Company struct {
	BaseModel
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	Logo string `json:"logo"`
}

// Sponsor is an account created by an admin for a company representative
type Sponsor struct {
	BaseModel
	Name         string  `json:"name" gorm:"not null"`
	Email        string  `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string  `json:"-" gorm:"not null"`
	ACL          string  `json:"ACL" gorm:"not null"`
	CompanyID    string  `json:"-" gorm:"type:varchar(26);not null;index"`
	Company      Company `json:"company" gorm:"foreignKey:CompanyID"`
}

// Participant is a hackathon attendee visible to sponsors
type Participant struct {
	BaseModel
	Name       string `json:"name" gorm:"not null"`
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	University string `json:"university"`
	Major      string `json:"major"`
	GradYear   int    `json:"grad_year"`
	Github     string `json:"github"`
	Linkedin   string `json:"linkedin"`
	Resume     string `json:"resume"`
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Admin{}, &Company{}, &Sponsor{}, &Participant{})
}
