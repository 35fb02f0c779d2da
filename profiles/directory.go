// Package profiles resolves short API keys to profiles. Accounts live in an
// external system; this is the narrow read-side directory the pipeline needs.
package profiles

import (
	"errors"

	"gorm.io/gorm"

	"ogserve/models"
)

// ByKey resolves a key to its profile. An unknown key returns (nil, nil):
// the generate path treats it like an anonymous request rather than failing.
func ByKey(db *gorm.DB, key string) (*models.Profile, error) {
	if key == "" {
		return nil, nil
	}
	var profile models.Profile
	err := db.Where("key = ?", key).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// HasProSubscription reports whether the key's owner renders watermark-free.
func HasProSubscription(db *gorm.DB, key string) bool {
	profile, err := ByKey(db, key)
	if err != nil || profile == nil {
		return false
	}
	return profile.ProSubscriber
}
