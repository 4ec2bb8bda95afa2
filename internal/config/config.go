// Package config holds the yaml-backed runtime configuration and its
// bootstrap, env overlay and validation.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Tag    string   `yaml:"tag"`
	Weight int      `yaml:"weight"`
	Any    []string `yaml:"any"`
}

type Penalty struct {
	Reason string   `yaml:"reason"`
	Weight int      `yaml:"weight"`
	Any    []string `yaml:"any"`
}

type Config struct {
	App struct {
		DataDir    string `yaml:"data_dir"`
		StatusAddr string `yaml:"status_addr"` // local ops endpoint, "" disables
	} `yaml:"app"`

	Admin struct {
		ChatID string `yaml:"chat_id"` // overridden by ADMIN_ID
	} `yaml:"admin"`

	Board struct {
		SearchURL  string  `yaml:"search_url"`   // resume search page, HTML
		APIBaseURL string  `yaml:"api_base_url"` // negotiations / video status, JSON
		ReqPerSec  float64 `yaml:"req_per_sec"`
		Burst      int     `yaml:"burst"`
		MaxResumes int     `yaml:"max_resumes"`
	} `yaml:"board"`

	Email struct {
		Enabled          bool     `yaml:"enabled"`
		IMAPHost         string   `yaml:"imap_host"`
		IMAPPort         int      `yaml:"imap_port"`
		Username         string   `yaml:"username"`
		Mailbox          string   `yaml:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any"`
	} `yaml:"email"`

	Polling struct {
		NegotiationsSeconds int `yaml:"negotiations_seconds"`
		VideoStatusSeconds  int `yaml:"video_status_seconds"`
	} `yaml:"polling"`

	Queue struct {
		Workers            int `yaml:"workers"`
		Depth              int `yaml:"depth"`
		TaskTimeoutSeconds int `yaml:"task_timeout_seconds"`
	} `yaml:"queue"`

	Criteria struct {
		TitleRules  []Rule   `yaml:"title_rules"`
		SkillRules  []Rule   `yaml:"skill_rules"`
		StopWords   []string `yaml:"stop_words"`
		MaxKeywords int      `yaml:"max_keywords"`
	} `yaml:"criteria"`

	Scoring struct {
		RecommendMinScore int       `yaml:"recommend_min_score"`
		RecommendMax      int       `yaml:"recommend_max"`
		Penalties         []Penalty `yaml:"penalties"`
	} `yaml:"scoring"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
