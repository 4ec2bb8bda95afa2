package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCfg() Config {
	var cfg Config
	cfg.Admin.ChatID = "1"
	cfg.Board.ReqPerSec = 1
	cfg.Board.Burst = 2
	cfg.Board.MaxResumes = 50
	cfg.Polling.NegotiationsSeconds = 600
	cfg.Polling.VideoStatusSeconds = 900
	cfg.Queue.Workers = 2
	cfg.Queue.Depth = 64
	cfg.Queue.TaskTimeoutSeconds = 120
	return cfg
}

func TestNormalizeAndValidateAcceptsGoodConfig(t *testing.T) {
	_, res := NormalizeAndValidate(validCfg())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestAdminChatIDChecks(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		cfg := validCfg()
		cfg.Admin.ChatID = ""
		_, res := NormalizeAndValidate(cfg)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors[0], "admin.chat_id")
	})

	t.Run("non-numeric", func(t *testing.T) {
		cfg := validCfg()
		cfg.Admin.ChatID = "bob"
		_, res := NormalizeAndValidate(cfg)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors[0], "numeric")
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		cfg := validCfg()
		cfg.Admin.ChatID = "  1  "
		out, res := NormalizeAndValidate(cfg)
		assert.True(t, res.OK())
		assert.Equal(t, "1", out.Admin.ChatID)
	})
}

func TestStopWordsAreDeduped(t *testing.T) {
	cfg := validCfg()
	cfg.Criteria.StopWords = []string{" the ", "The", "", "and"}
	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"the", "and"}, out.Criteria.StopWords)
}

func TestQueueSettingsMustBePositive(t *testing.T) {
	cfg := validCfg()
	cfg.Queue.Workers = 0
	cfg.Queue.Depth = -1
	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Len(t, res.Errors, 2)
}

func TestRuleDictionariesAreChecked(t *testing.T) {
	cfg := validCfg()
	cfg.Criteria.TitleRules = []Rule{{Tag: "", Any: nil}}
	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "criteria.title_rules[0].tag")
	assert.Contains(t, res.Errors[1], "criteria.title_rules[0].any")
}

func TestEmailSettingsRequiredWhenEnabled(t *testing.T) {
	cfg := validCfg()
	cfg.Email.Enabled = true
	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.GreaterOrEqual(t, len(res.Errors), 4)

	cfg.Email.IMAPHost = "imap.example.com"
	cfg.Email.IMAPPort = 993
	cfg.Email.Username = "bot@example.com"
	cfg.Email.Mailbox = "INBOX"
	_, res = NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	// empty subject filter is only a warning
	assert.NotEmpty(t, res.Warnings)
}

func TestRecommendMaxDefaults(t *testing.T) {
	cfg := validCfg()
	cfg.Scoring.RecommendMax = 0
	out, _ := NormalizeAndValidate(cfg)
	assert.Equal(t, 5, out.Scoring.RecommendMax)
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("ADMIN_ID", "777")
	t.Setenv("USERS_DATA_DIR", "/tmp/overlay-test")

	cfg := validCfg()
	OverlayEnv(&cfg)
	assert.Equal(t, "777", cfg.Admin.ChatID)
	assert.Equal(t, "/tmp/overlay-test", cfg.App.DataDir)
}

func TestOverlayEnvDefaultsDataDir(t *testing.T) {
	t.Setenv("ADMIN_ID", "")
	t.Setenv("USERS_DATA_DIR", "")

	cfg := validCfg()
	OverlayEnv(&cfg)
	assert.Equal(t, "/users_data", cfg.App.DataDir)
}

func TestEnsureUserConfigWritesBuiltinDefault(t *testing.T) {
	dataDir := t.TempDir()
	path, err := EnsureUserConfig(dataDir, filepath.Join(dataDir, "no-such-default.yml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, 600, cfg.Polling.NegotiationsSeconds)
}

func TestEnsureUserConfigCopiesPackagedDefault(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("admin:\n  chat_id: \"5\"\n"), 0o644))

	path, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5", cfg.Admin.ChatID)
}

func TestEnsureUserConfigKeepsExisting(t *testing.T) {
	dataDir := t.TempDir()
	existing := filepath.Join(dataDir, "config.yml")
	require.NoError(t, os.WriteFile(existing, []byte("admin:\n  chat_id: \"9\"\n"), 0o644))

	path, err := EnsureUserConfig(dataDir, "ignored.yml")
	require.NoError(t, err)
	assert.Equal(t, existing, path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9", cfg.Admin.ChatID)
}
