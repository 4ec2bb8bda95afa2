package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFileFixture(t *testing.T) (*fixture, string) {
	t.Helper()
	dataDir := t.TempDir()
	f := &fixture{
		recs:     newFakeRecords("42"),
		pipe:     &fakePipeline{},
		sender:   &fakeSender{},
		notifier: newFakeNotifier(),
	}
	disp, err := New(Config{AdminID: "1", DataDir: dataDir}, f.recs, f.pipe, f.sender, f.notifier)
	require.NoError(t, err)
	f.disp = disp
	return f, dataDir
}

func TestPullFileSendsWhitelistedFile(t *testing.T) {
	f, dataDir := newFileFixture(t)
	writeFile(t, dataDir, "logs/app.log", "line one\n")

	msg := adminMsg("admin_pull_file", "logs/app.log")
	require.NoError(t, f.disp.PullFile(context.Background(), msg))

	docs := f.sender.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "app.log", docs[0])
}

func TestPullFileRejectsDisallowedExtension(t *testing.T) {
	f, dataDir := newFileFixture(t)
	// the file exists, but the extension check must run first and
	// never reach the filesystem
	writeFile(t, dataDir, "logs/x.exe", "MZ")

	msg := adminMsg("admin_pull_file", "logs/x.exe")
	err := f.disp.PullFile(context.Background(), msg)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "Invalid file extension.")
	assert.Contains(t, err.Error(), ".log, .json, .mp4")
	assert.Empty(t, f.sender.Documents())
}

func TestPullFileRejectsPathEscapes(t *testing.T) {
	f, _ := newFileFixture(t)

	cases := []string{
		"../etc/secrets.json",
		"logs/../../other.log",
		"/etc/passwd.log",
	}
	for _, rel := range cases {
		t.Run(rel, func(t *testing.T) {
			msg := adminMsg("admin_pull_file", rel)
			err := f.disp.PullFile(context.Background(), msg)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), "Path escapes the data directory")
			assert.Empty(t, f.sender.Documents())
		})
	}
}

func TestPullFileMissingFile(t *testing.T) {
	f, _ := newFileFixture(t)

	msg := adminMsg("admin_pull_file", "logs/missing.log")
	err := f.disp.PullFile(context.Background(), msg)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "Invalid file relative path 'logs/missing.log'. File not found")
}

func TestPullFileArgumentArity(t *testing.T) {
	f, _ := newFileFixture(t)

	for _, args := range [][]string{nil, {"a.log", "b.log"}} {
		msg := adminMsg("admin_pull_file", args...)
		err := f.disp.PullFile(context.Background(), msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid number of arguments.")
	}
}

func TestPullFileDeliveryFailureEchoesSupportText(t *testing.T) {
	f, dataDir := newFileFixture(t)
	writeFile(t, dataDir, "report.json", "{}")
	f.sender.failDocuments = true

	msg := adminMsg("admin_pull_file", "report.json")
	err := f.disp.PullFile(context.Background(), msg)

	require.Error(t, err)
	msgs := f.sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TechnicalSupportText, msgs[0].Text)
	assert.Equal(t, "1", msgs[0].ChatID)
}
