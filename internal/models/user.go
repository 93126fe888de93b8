package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is a registered learner. The matcher only reads this table to confirm
// a user exists and to resolve notification targets; profile editing belongs
// to the bot layer.
type User struct {
	ID         string `gorm:"primaryKey" json:"id"` // anonymous UUID
	TelegramID int64  `gorm:"uniqueIndex"`
	Username   string
	Gender     string
	// LangCode is the user's interface language for localized notifications.
	LangCode string
	// NativeLanguage is what the user speaks natively; partners practicing
	// that language get paired with them.
	NativeLanguage string
	// Fluency is the self-reported level (0..3) in the practice language.
	Fluency   int
	Interests pq.StringArray `gorm:"type:text[]"`
}

// BeforeCreate is a GORM hook generating a fresh anonymous UUID when one
// was not supplied.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
