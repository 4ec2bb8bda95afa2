package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hirebot-engine/internal/chat"
)

var validPullExtensions = []string{".log", ".json", ".mp4"}

// PullFile streams a file from under the configured data root back to
// the invoking chat as an attachment. Extension whitelist and path
// containment are checked before the filesystem is touched.
func (d *Dispatcher) PullFile(ctx context.Context, msg chat.Message) error {
	if len(msg.Args) != 1 {
		return validationf("Invalid number of arguments.")
	}
	relPath := msg.Args[0]

	absPath, err := d.resolvePullPath(relPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return validationf("Invalid file relative path '%s'. File not found", relPath)
		}
		return fmt.Errorf("stat %s: %w", relPath, err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", relPath, err)
	}
	defer f.Close()

	if err := d.sender.SendDocument(ctx, msg.ChatID, filepath.Base(absPath), f); err != nil {
		if serr := d.sender.SendMessage(ctx, msg.ChatID, TechnicalSupportText); serr != nil {
			log.Printf("[admin] admin_pull_file: failure echo failed: %v", serr)
		}
		return fmt.Errorf("send file '%s': %w", relPath, err)
	}

	log.Printf("[admin] admin_pull_file: file '%s' sent", absPath)
	return nil
}

// resolvePullPath validates relPath without touching the filesystem:
// extension must be whitelisted and the joined path must stay under the
// data root (no absolute paths, no ".." escapes).
func (d *Dispatcher) resolvePullPath(relPath string) (string, error) {
	ext := filepath.Ext(relPath)
	allowed := false
	for _, v := range validPullExtensions {
		if ext == v {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", validationf("Invalid file extension.\nValid: %s", strings.Join(validPullExtensions, ", "))
	}

	if !filepath.IsLocal(relPath) {
		return "", validationf("Invalid file relative path '%s'. Path escapes the data directory", relPath)
	}

	abs := filepath.Join(d.cfg.DataDir, relPath)

	// the cleaned join must still be inside the root
	rel, err := filepath.Rel(d.cfg.DataDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", validationf("Invalid file relative path '%s'. Path escapes the data directory", relPath)
	}

	return abs, nil
}
