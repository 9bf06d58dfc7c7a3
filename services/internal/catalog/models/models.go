package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"              json:"id"`
	Name        string    `gorm:"size:64;not null"                  json:"name"`
	Description string    `gorm:"size:2048"                         json:"description"`
	Price       float64   `gorm:"not null"                          json:"price"`
	Stock       int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Version     int       `gorm:"not null;default:1"                json:"version"`
	Category    string    `gorm:"size:64"                           json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}
