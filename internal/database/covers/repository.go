// Package covers provides database operations for the cover URL cache.
//
// This package implements the covers.Cache interface used by the cover
// fetcher. Misses are stored as empty strings so exhausted lookups are
// not retried on every sync.
//
// # Usage
//
//	repo := covers.NewRepository(db)
//	url, ok := repo.Get("埃隆·马斯克传|沃尔特·艾萨克森")
package covers

import (
	"log"

	"gorm.io/gorm"

	coverlookup "github.com/readsync/weread2notion/internal/covers"
	"github.com/readsync/weread2notion/internal/entities"
)

var _ coverlookup.Cache = (*Repository)(nil)

// Repository handles all cover cache database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cover cache repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a cached cover URL. The second return is false only when
// no lookup has been recorded for the key; a cached miss returns ("", true).
func (r *Repository) Get(key string) (string, bool) {
	var cover entities.CachedCover
	err := r.db.Where("cache_key = ?", key).First(&cover).Error
	if err == gorm.ErrRecordNotFound {
		return "", false
	}
	if err != nil {
		log.Printf("Cover cache: read failed for %q: %v", key, err)
		return "", false
	}
	return cover.CoverURL, true
}

// Put stores a resolved cover URL (or an empty string for a miss).
func (r *Repository) Put(key, url string) error {
	var cover entities.CachedCover
	result := r.db.Where("cache_key = ?", key).First(&cover)

	if result.Error == gorm.ErrRecordNotFound {
		cover = entities.CachedCover{
			CacheKey: key,
			CoverURL: url,
		}
		return r.db.Create(&cover).Error
	} else if result.Error != nil {
		return result.Error
	}

	cover.CoverURL = url
	return r.db.Save(&cover).Error
}
