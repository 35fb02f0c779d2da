// Package imagecache stores rendered images keyed by request fingerprint.
// Bytes live in the blob store with a freecache hot layer in front; the
// database row maps fingerprints to blob keys and carries the staleness
// timestamp. Regeneration writes a new blob, swaps the row, then deletes the
// superseded blob — there is never a window without a servable image.
package imagecache

import (
	"context"
	"errors"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"ogserve/config"
	"ogserve/database"
	"ogserve/models"
	"ogserve/render"
	"ogserve/storage"
)

const (
	hotCacheSizeBytes  = 32 * 1024 * 1024
	hotCacheTTLSeconds = 60
)

// Cache is the content-addressed image cache.
type Cache struct {
	DB    *gorm.DB
	Blobs storage.BlobStore
	Hot   *freecache.Cache

	StaleAfter  time.Duration
	AlwaysStale bool // development: regenerate on every hit
}

// Default is the process-wide cache, set by Init.
var Default *Cache

func Init(cfg *config.Config) *Cache {
	Default = &Cache{
		DB:          database.DB,
		Blobs:       storage.Default,
		Hot:         freecache.NewCache(hotCacheSizeBytes),
		StaleAfter:  cfg.CacheStaleAfter,
		AlwaysStale: cfg.IsDevelopment(),
	}
	return Default
}

// Lookup returns the cached row and bytes for the request's fingerprint, or
// (nil, nil, nil) on a miss. A row whose blob went missing counts as a miss.
func (c *Cache) Lookup(ctx context.Context, req render.Request) (*models.CachedImage, []byte, error) {
	fingerprint := req.Fingerprint()

	var row models.CachedImage
	err := c.DB.Where("fingerprint = ?", fingerprint).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if c.Hot != nil {
		if data, err := c.Hot.Get([]byte(fingerprint)); err == nil {
			return &row, data, nil
		}
	}

	data, err := c.Blobs.Get(ctx, row.BlobKey)
	if err != nil {
		zlog.Warn().Str("fingerprint", fingerprint).Str("blob_key", row.BlobKey).Err(err).
			Msg("cached blob unreadable, treating as miss")
		return nil, nil, nil
	}
	c.hotSet(fingerprint, data)
	return &row, data, nil
}

// Store persists rendered bytes under the request's fingerprint. On
// regeneration the fresh blob is written and the row swapped before the old
// blob is deleted.
func (c *Cache) Store(ctx context.Context, req render.Request, data []byte, profileID *uint) (*models.CachedImage, error) {
	fingerprint := req.Fingerprint()
	blobKey := newBlobKey(req)

	if err := c.Blobs.Put(ctx, blobKey, data, req.ContentType()); err != nil {
		return nil, err
	}

	var row models.CachedImage
	err := c.DB.Where("fingerprint = ?", fingerprint).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.CachedImage{
			Fingerprint: fingerprint,
			BlobKey:     blobKey,
			ContentType: req.ContentType(),
			SizeBytes:   len(data),
			ProfileID:   profileID,
		}
		if err := c.DB.Create(&row).Error; err != nil {
			// A concurrent writer won the create race; its blob serves fine.
			// Clean up ours and return the winning row.
			_ = c.Blobs.Delete(ctx, blobKey)
			if err2 := c.DB.Where("fingerprint = ?", fingerprint).First(&row).Error; err2 != nil {
				return nil, err
			}
		}
	case err != nil:
		return nil, err
	default:
		oldBlobKey := row.BlobKey
		row.BlobKey = blobKey
		row.ContentType = req.ContentType()
		row.SizeBytes = len(data)
		if err := c.DB.Save(&row).Error; err != nil {
			return nil, err
		}
		// Swap committed; the superseded blob can go.
		if oldBlobKey != "" && oldBlobKey != blobKey {
			if err := c.Blobs.Delete(ctx, oldBlobKey); err != nil {
				zlog.Warn().Str("blob_key", oldBlobKey).Err(err).Msg("deleting superseded blob failed")
			}
		}
	}

	c.hotSet(fingerprint, data)
	return &row, nil
}

// IsStale reports whether a cached entry should be regenerated out-of-band.
func (c *Cache) IsStale(row *models.CachedImage, now time.Time) bool {
	if c.AlwaysStale {
		return true
	}
	if c.StaleAfter <= 0 {
		return false
	}
	return now.Sub(row.UpdatedAt) > c.StaleAfter
}

// Refresh re-renders and swaps a cache entry in place. Runs on the task
// queue; errors are logged, never surfaced.
func (c *Cache) Refresh(ctx context.Context, req render.Request, profileID *uint, renderFn func() ([]byte, error)) {
	data, err := renderFn()
	if err != nil {
		zlog.Error().Str("fingerprint", req.Fingerprint()).Err(err).Msg("stale cache regeneration failed")
		return
	}
	if _, err := c.Store(ctx, req, data, profileID); err != nil {
		zlog.Error().Str("fingerprint", req.Fingerprint()).Err(err).Msg("storing regenerated image failed")
	}
}

func (c *Cache) hotSet(fingerprint string, data []byte) {
	if c.Hot != nil {
		_ = c.Hot.Set([]byte(fingerprint), data, hotCacheTTLSeconds)
	}
}

func newBlobKey(req render.Request) string {
	ext := ".png"
	if req.Format == render.FormatJPEG {
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}
