// Package scheduler runs the periodic notes sync on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/readsync/weread2notion/internal/services"
)

// Syncer runs a full notes sync pass.
type Syncer interface {
	Sync(ctx context.Context, opts services.SyncOptions) (services.SyncResult, error)
}

// Config controls the periodic sync.
type Config struct {
	Enabled     bool
	Schedule    string
	FetchCovers bool
}

// NotesSyncScheduler manages the periodic sync of WeChat Read exports
// to Notion.
type NotesSyncScheduler struct {
	syncer Syncer
	config Config

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewNotesSyncScheduler creates a new scheduler instance.
func NewNotesSyncScheduler(syncer Syncer, config Config) *NotesSyncScheduler {
	return &NotesSyncScheduler{
		syncer: syncer,
		config: config,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if sync is enabled.
func (s *NotesSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Notes sync scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Notes sync scheduler: started with schedule '%s'. Next run: %v",
		s.config.Schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync to
// complete.
func (s *NotesSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Notes sync scheduler: stopped")
}

// RunNow triggers an immediate sync.
func (s *NotesSyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active.
func (s *NotesSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress.
func (s *NotesSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sync will occur.
func (s *NotesSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs the actual sync operation.
func (s *NotesSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Notes sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	log.Printf("Notes sync: starting scheduled run")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.syncer.Sync(ctx, services.SyncOptions{FetchCovers: s.config.FetchCovers})
	if err != nil {
		if errors.Is(err, services.ErrSyncRunning) {
			log.Printf("Notes sync: skipped (another sync is in progress)")
			return
		}
		log.Printf("Notes sync: failed after %v: %v", time.Since(startTime).Round(time.Millisecond), err)
		return
	}

	log.Printf("Notes sync: completed in %v (%d notes, %d books, %d new, %d skipped)",
		time.Since(startTime).Round(time.Millisecond),
		result.Notes, result.Books, result.NotesCreated, result.NotesSkipped)
}
