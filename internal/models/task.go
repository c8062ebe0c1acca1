package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const TaskTitleMaxLength = 255

type Task struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title       string    `gorm:"size:255;not null"`
	Description *string   `gorm:"type:text"`
	Completed   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}
