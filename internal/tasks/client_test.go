package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// The queue lives in a dedicated database next to the main one.
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

type fakeFetcher struct {
	url string
	err error
}

func (f *fakeFetcher) FetchURL(ctx context.Context, title, author string) (string, error) {
	return f.url, f.err
}

type fakeSetter struct {
	pageID string
	url    string
	err    error
}

func (f *fakeSetter) SetCover(ctx context.Context, pageID, coverURL string) error {
	f.pageID = pageID
	f.url = coverURL
	return f.err
}

func TestFetchCoverTaskConfig(t *testing.T) {
	task := FetchCoverTask{BookPageID: "page-1", Title: "埃隆·马斯克传"}
	cfg := task.Config()

	assert.Equal(t, "fetch_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestFetchCoverProcessor_SetsCover(t *testing.T) {
	fetcher := &fakeFetcher{url: "https://covers.example/x.jpg"}
	setter := &fakeSetter{}
	processor := FetchCoverProcessor(fetcher, setter)

	err := processor(context.Background(), FetchCoverTask{BookPageID: "page-1", Title: "T", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, "page-1", setter.pageID)
	assert.Equal(t, fetcher.url, setter.url)
}

func TestFetchCoverProcessor_NoCoverIsNotAnError(t *testing.T) {
	setter := &fakeSetter{}
	processor := FetchCoverProcessor(&fakeFetcher{}, setter)

	err := processor(context.Background(), FetchCoverTask{BookPageID: "page-1", Title: "T"})
	require.NoError(t, err)
	assert.Empty(t, setter.pageID, "no cover means no page update")
}

func TestFetchCoverProcessor_PropagatesErrors(t *testing.T) {
	processor := FetchCoverProcessor(&fakeFetcher{err: errors.New("douban down")}, &fakeSetter{})

	err := processor(context.Background(), FetchCoverTask{BookPageID: "page-1", Title: "T"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "douban down")
}

func TestEnqueuer_RunsFetchCoverTask(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	done := make(chan FetchCoverTask, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task FetchCoverTask) error {
		done <- task
		return nil
	})
	client.Register(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	err = NewEnqueuer(client).EnqueueFetchCover("page-9", "我的书", "作者")
	require.NoError(t, err)

	select {
	case task := <-done:
		assert.Equal(t, "page-9", task.BookPageID)
		assert.Equal(t, "我的书", task.Title)
		assert.Equal(t, "作者", task.Author)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
