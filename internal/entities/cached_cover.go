package entities

import (
	"time"
)

// CachedCover remembers a resolved cover URL for a book. An empty URL
// means every provider was tried and none had a cover, so the lookup is
// not repeated on later syncs.
type CachedCover struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CacheKey  string    `gorm:"size:768;uniqueIndex" json:"cache_key"`
	CoverURL  string    `gorm:"size:2048" json:"cover_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CachedCover) TableName() string {
	return "cached_covers"
}
