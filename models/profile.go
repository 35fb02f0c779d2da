package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// Profile is the owner of an API key. Accounts and billing live in an
// external system; only the fields the image pipeline needs are mirrored here.
type Profile struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Key           string `json:"key" gorm:"size:16;uniqueIndex;not null"`
	Email         string `json:"email" gorm:"size:255"`
	ProSubscriber bool   `json:"pro_subscriber"` // pro profiles get watermark-free output
	Superuser     bool   `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.Key == "" {
		p.Key = randomKey(10)
	}
	return
}

func randomKey(n int) string {
	buf := make([]byte, (n+1)/2)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)[:n]
}
