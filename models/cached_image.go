package models

import "time"

// CachedImage maps a render-request fingerprint to the blob holding its
// encoded bytes. Regeneration writes a new blob and swaps BlobKey in place;
// the superseded blob is deleted only after the swap.
type CachedImage struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Fingerprint string `json:"fingerprint" gorm:"size:80;uniqueIndex;not null"`
	BlobKey     string `json:"blob_key" gorm:"size:128;not null"`
	ContentType string `json:"content_type" gorm:"size:32"`
	SizeBytes   int    `json:"size_bytes"`
	ProfileID   *uint  `json:"profile_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
