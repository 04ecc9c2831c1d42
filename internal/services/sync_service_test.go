package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readsync/weread2notion/internal/wereader"
)

const sampleExport = `我的书
微信读书
导出自微信读书
共 2 个笔记

第一章
◆2023/10/1 发表想法
想法正文

原文：原文片段
◆第二个高亮 2023/10/2
第二个高亮内容
`

type fakeBooks struct {
	upserts []bookAggregate
	covers  []string
	err     error
}

func (f *fakeBooks) Upsert(ctx context.Context, title, author string, lastNoteDate time.Time, coverURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.upserts = append(f.upserts, bookAggregate{Title: title, Author: author, LastNoteDate: lastNoteDate})
	f.covers = append(f.covers, coverURL)
	return "page-" + title, nil
}

type fakeNotes struct {
	upserted []string
	embedded map[string]int
	skip     bool
	err      error
}

func (f *fakeNotes) Upsert(ctx context.Context, note *wereader.Note, bookPageID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.upserted = append(f.upserted, bookPageID)
	return "note-page", !f.skip, nil
}

func (f *fakeNotes) EmbedInBookPage(ctx context.Context, bookPageID, bookTitle string, notes []wereader.Note) error {
	if f.embedded == nil {
		f.embedded = map[string]int{}
	}
	f.embedded[bookTitle] = len(notes)
	return nil
}

type fakeDaily struct {
	days []time.Time
}

func (f *fakeDaily) Upsert(ctx context.Context, day time.Time, count int) (string, error) {
	f.days = append(f.days, day)
	return "daily-page", nil
}

type fakeCovers struct {
	url   string
	calls int
}

func (f *fakeCovers) FetchURL(ctx context.Context, title, author string) (string, error) {
	f.calls++
	return f.url, nil
}

type fakeEnqueuer struct {
	enqueued []string
}

func (f *fakeEnqueuer) EnqueueFetchCover(bookPageID, title, author string) error {
	f.enqueued = append(f.enqueued, title)
	return nil
}

type fakeProgress struct {
	running   bool
	started   int
	updates   int
	completed []bool
	lastError string
}

func (f *fakeProgress) StartSync(totalItems int) error { f.started = totalItems; return nil }

func (f *fakeProgress) UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error {
	f.updates++
	return nil
}

func (f *fakeProgress) CompleteSync(succeeded bool, errorMsg string) error {
	f.completed = append(f.completed, succeeded)
	f.lastError = errorMsg
	return nil
}

func (f *fakeProgress) IsSyncRunning() (bool, error) { return f.running, nil }

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestService(t *testing.T) (*SyncService, *fakeBooks, *fakeNotes, *fakeDaily, *fakeProgress, string) {
	t.Helper()
	dir := t.TempDir()
	books := &fakeBooks{}
	notes := &fakeNotes{}
	daily := &fakeDaily{}
	progress := &fakeProgress{}
	svc := NewSyncService(books, notes, daily, nil, nil, progress, dir)
	return svc, books, notes, daily, progress, dir
}

func TestSyncService_GatherFiles_SortedTXTOnly(t *testing.T) {
	svc, _, _, _, _, dir := newTestService(t)

	writeExport(t, dir, "b.txt", "x")
	writeExport(t, dir, "a.txt", "x")
	writeExport(t, dir, "notes.md", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeExport(t, filepath.Join(dir, "nested"), "c.txt", "x")

	files, err := svc.GatherFiles()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.txt"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.txt"), files[1])
	assert.Equal(t, filepath.Join(dir, "nested", "c.txt"), files[2])
}

func TestSyncService_Sync(t *testing.T) {
	svc, books, notes, daily, progress, dir := newTestService(t)
	writeExport(t, dir, "export.txt", sampleExport)

	result, err := svc.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 2, result.Notes)
	assert.Equal(t, 1, result.Books)
	assert.Equal(t, 2, result.NotesCreated)
	assert.Equal(t, 0, result.NotesSkipped)
	assert.Equal(t, 2, result.DailyRows)

	require.Len(t, books.upserts, 1)
	assert.Equal(t, "我的书", books.upserts[0].Title)
	assert.Equal(t, "微信读书", books.upserts[0].Author)
	assert.Equal(t, time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC), books.upserts[0].LastNoteDate)

	require.Len(t, notes.upserted, 2)
	assert.Equal(t, "page-我的书", notes.upserted[0])
	assert.Equal(t, 2, notes.embedded["我的书"])

	require.Len(t, daily.days, 2)
	assert.True(t, daily.days[0].Before(daily.days[1]))

	assert.Equal(t, 2, progress.started)
	assert.Equal(t, 2, progress.updates)
	assert.Equal(t, []bool{true}, progress.completed)
}

func TestSyncService_Sync_DryRunSkipsWrites(t *testing.T) {
	svc, books, notes, _, progress, dir := newTestService(t)
	writeExport(t, dir, "export.txt", sampleExport)

	result, err := svc.Sync(context.Background(), SyncOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Notes)
	assert.Empty(t, books.upserts)
	assert.Empty(t, notes.upserted)
	assert.Zero(t, progress.started)
	assert.Empty(t, progress.completed)
}

func TestSyncService_Sync_EmptyDir(t *testing.T) {
	svc, books, _, _, progress, _ := newTestService(t)

	result, err := svc.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)

	assert.Zero(t, result.Files)
	assert.Empty(t, books.upserts)
	assert.Empty(t, progress.completed)
}

func TestSyncService_Sync_AlreadyRunning(t *testing.T) {
	svc, _, _, _, progress, dir := newTestService(t)
	writeExport(t, dir, "export.txt", sampleExport)
	progress.running = true

	_, err := svc.Sync(context.Background(), SyncOptions{})
	assert.ErrorIs(t, err, ErrSyncRunning)
}

func TestSyncService_Sync_InlineCoverFetch(t *testing.T) {
	svc, books, _, _, _, dir := newTestService(t)
	covers := &fakeCovers{url: "https://covers.example/x.jpg"}
	svc.covers = covers
	writeExport(t, dir, "export.txt", sampleExport)

	_, err := svc.Sync(context.Background(), SyncOptions{FetchCovers: true})
	require.NoError(t, err)

	assert.Equal(t, 1, covers.calls)
	require.Len(t, books.covers, 1)
	assert.Equal(t, covers.url, books.covers[0])
}

func TestSyncService_Sync_BackgroundCoverFetchWins(t *testing.T) {
	svc, books, _, _, _, dir := newTestService(t)
	covers := &fakeCovers{url: "https://covers.example/x.jpg"}
	enqueuer := &fakeEnqueuer{}
	svc.covers = covers
	svc.coverTasks = enqueuer
	writeExport(t, dir, "export.txt", sampleExport)

	_, err := svc.Sync(context.Background(), SyncOptions{FetchCovers: true})
	require.NoError(t, err)

	assert.Zero(t, covers.calls)
	assert.Equal(t, []string{"我的书"}, enqueuer.enqueued)
	require.Len(t, books.covers, 1)
	assert.Empty(t, books.covers[0])
}

func TestSyncService_Sync_SkippedNotesCounted(t *testing.T) {
	svc, _, notes, _, _, dir := newTestService(t)
	notes.skip = true
	writeExport(t, dir, "export.txt", sampleExport)

	result, err := svc.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NotesCreated)
	assert.Equal(t, 2, result.NotesSkipped)
}

func TestSyncService_Sync_NoteFailuresDoNotAbort(t *testing.T) {
	svc, _, notes, daily, progress, dir := newTestService(t)
	notes.err = errors.New("notion down")
	writeExport(t, dir, "export.txt", sampleExport)

	result, err := svc.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NotesFailed)
	assert.NotEmpty(t, daily.days)
	assert.Equal(t, []bool{true}, progress.completed)
}

func TestSyncService_Sync_BookFailureAborts(t *testing.T) {
	svc, books, notes, _, progress, dir := newTestService(t)
	books.err = errors.New("invalid token")
	writeExport(t, dir, "export.txt", sampleExport)

	_, err := svc.Sync(context.Background(), SyncOptions{})
	require.Error(t, err)
	assert.Empty(t, notes.upserted)
	assert.Equal(t, []bool{false}, progress.completed)
	assert.Contains(t, progress.lastError, "invalid token")
}

func TestUniqueBooks(t *testing.T) {
	notes := []wereader.Note{
		{BookTitle: "A", Author: ""},
		{BookTitle: "B", Author: "作者B", CreatedDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{BookTitle: "A", Author: "作者A", CreatedDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{BookTitle: "A", Author: "另一作者", CreatedDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	books := uniqueBooks(notes)
	require.Len(t, books, 2)
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, "作者A", books[0].Author)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), books[0].LastNoteDate)
	assert.Equal(t, "B", books[1].Title)
}
