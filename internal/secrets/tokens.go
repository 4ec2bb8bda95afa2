package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"hirebot-engine/internal/config"
)

const (
	// "Service" groups the bot's secrets in the OS keychain.
	KeyringService = "hirebot"

	botTokenAccount = "hirebot:telegram:bot_token"
)

// BotToken resolves the Telegram token env-first (BOT_TOKEN), then from
// the OS keychain.
func BotToken() (string, error) {
	if tok := strings.TrimSpace(os.Getenv("BOT_TOKEN")); tok != "" {
		return tok, nil
	}
	tok, err := keyring.Get(KeyringService, botTokenAccount)
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}
	return "", errors.New("bot token not found (set BOT_TOKEN or store it in the keychain)")
}

func SetBotToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, botTokenAccount, token)
}

// BoardToken resolves the candidate-board API token (BOARD_API_TOKEN
// env, then keychain keyed by the API host).
func BoardToken(cfg config.Config) (string, error) {
	if tok := strings.TrimSpace(os.Getenv("BOARD_API_TOKEN")); tok != "" {
		return tok, nil
	}
	tok, err := keyring.Get(KeyringService, boardAccount(cfg))
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}
	return "", errors.New("board API token not found (set BOARD_API_TOKEN or store it in the keychain)")
}

func SetBoardToken(cfg config.Config, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, boardAccount(cfg), token)
}

func IMAPPassword(cfg config.Config) (string, error) {
	if pw := strings.TrimSpace(os.Getenv("IMAP_PASSWORD")); pw != "" {
		return pw, nil
	}
	account := fmt.Sprintf("hirebot:imap:%s@%s", cfg.Email.Username, cfg.Email.IMAPHost)
	pw, err := keyring.Get(KeyringService, account)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", errors.New("IMAP password not found (set IMAP_PASSWORD or store it in the keychain)")
}

func boardAccount(cfg config.Config) string {
	return fmt.Sprintf("hirebot:board:%s", cfg.Board.APIBaseURL)
}
