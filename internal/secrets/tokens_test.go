package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"hirebot-engine/internal/config"
)

func TestEnvWinsOverKeychain(t *testing.T) {
	keyring.MockInit()

	t.Setenv("BOT_TOKEN", "  tok-from-env  ")
	tok, err := BotToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-from-env", tok)

	t.Setenv("BOARD_API_TOKEN", "board-env")
	tok, err = BoardToken(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "board-env", tok)
}

func TestKeychainRoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("BOARD_API_TOKEN", "")

	_, err := BotToken()
	require.Error(t, err)

	require.NoError(t, SetBotToken("stored-token"))
	tok, err := BotToken()
	require.NoError(t, err)
	assert.Equal(t, "stored-token", tok)

	var cfg config.Config
	cfg.Board.APIBaseURL = "https://api.board.example"
	require.NoError(t, SetBoardToken(cfg, "stored-board"))
	tok, err = BoardToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "stored-board", tok)
}

func TestSetRejectsEmptyToken(t *testing.T) {
	assert.Error(t, SetBotToken("  "))
	assert.Error(t, SetBoardToken(config.Config{}, ""))
}
