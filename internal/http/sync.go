package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SyncController struct {
	trigger  SyncTrigger
	progress ProgressStore
}

func NewSyncController(trigger SyncTrigger, progress ProgressStore) *SyncController {
	return &SyncController{
		trigger:  trigger,
		progress: progress,
	}
}

// Trigger starts a background sync. Mirrors the hosted trigger endpoint
// the exports used to be synced through.
func (sc *SyncController) Trigger(c *gin.Context) {
	if sc.trigger.IsSyncing() {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync is already in progress"})
		return
	}

	if err := sc.trigger.RunNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// Status reports the persisted progress of the current or most recent
// sync.
func (sc *SyncController) Status(c *gin.Context) {
	progress, err := sc.progress.GetSyncProgress()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "never_run", "syncing": sc.trigger.IsSyncing()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   progress.Status,
		"syncing":  sc.trigger.IsSyncing(),
		"progress": progress,
	})
}
