package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"herald/internal/contact"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.json", `{
		"country_code": "1",
		"group_name": "Crew",
		"numbers": ["5551230001", "5551230002", "5551230003"],
		"messages": {"bulk": "hello"},
		"pacing": {"min_delay": "0s", "max_delay": "0s", "rate_per_sec": 1000},
		"logging": {"level": "error"},
		"storage": {"driver": "file", "path": "`+filepath.ToSlash(filepath.Join(dir, "herald.db"))+`"}
	}`)

	a, err := New(cfgPath, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestSelectDefaultsToConfigSource(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	recs, source, err := a.Select(0, 0)
	require.NoError(t, err)
	require.Equal(t, contact.DefaultSource, source)
	require.Len(t, recs, 3)
	require.Equal(t, "15551230001@c.us", recs[0].ChannelID)
}

func TestSelectBatchWindow(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	recs, _, err := a.Select(2, 2)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, _, err = a.Select(2, 5)
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestImportSwitchesActiveSource(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	path := writeFile(t, t.TempDir(), "friends.csv", "Name,Phone\nJohn Doe,1234567890\nJane,5559876543\n")

	col, err := a.Import(path, FormatAuto)
	require.NoError(t, err)
	require.Equal(t, 2, col.Len())
	require.Equal(t, "friends", a.Registry().ActiveName())
	require.Equal(t, contact.OriginImported, col.Origin)
	require.Equal(t, "John Doe", col.Records[0].Name)
}

func TestImportRejectsEmptyFile(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	path := writeFile(t, t.TempDir(), "junk.txt", "not a number\n")

	_, err := a.Import(path, FormatAuto)
	require.Error(t, err)
	// A failed import must not steal the active pointer.
	require.Equal(t, contact.DefaultSource, a.Registry().ActiveName())
}

func TestSendBulkRecordsRun(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	sum, err := a.SendBulk(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Sent)
	require.Equal(t, 3, sum.Total)

	entries, err := a.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "send", entries[0].Kind)
	require.Equal(t, sum.RunID, entries[0].RunID)
	require.Equal(t, 3, entries[0].Sent)
}

func TestSendBulkRequiresMessage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.json", `{
		"numbers": ["5551230001"],
		"pacing": {"min_delay": "0s", "max_delay": "0s"},
		"logging": {"level": "error"}
	}`)
	a, err := New(cfgPath, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.SendBulk(context.Background(), "", 0, 0)
	require.Error(t, err)
}

func TestGroupRunDefaultsToConfigGroup(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	sum, err := a.GroupRun(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "Crew", sum.Group.Name)
	require.Equal(t, 3, sum.Added)

	entries, err := a.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "group", entries[0].Kind)
	require.Equal(t, "Crew", entries[0].GroupName)
	require.Equal(t, 3, entries[0].Added)
}
