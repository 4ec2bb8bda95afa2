package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// defaultYAML is used when no packaged default config exists next to the
// binary. Keeps first-run on a bare host working.
const defaultYAML = `app:
  data_dir: ""
admin:
  chat_id: ""
board:
  search_url: ""
  api_base_url: ""
  req_per_sec: 1.0
  burst: 2
  max_resumes: 50
polling:
  negotiations_seconds: 600
  video_status_seconds: 900
queue:
  workers: 2
  depth: 64
  task_timeout_seconds: 120
criteria:
  max_keywords: 12
scoring:
  recommend_min_score: 40
  recommend_max: 5
`

// EnsureUserConfig makes sure dataDir holds a config.yml, copying the
// packaged default (or writing the built-in one) on first run.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if werr := os.WriteFile(userPath, []byte(defaultYAML), 0o644); werr != nil {
				return "", werr
			}
			return userPath, nil
		}
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
