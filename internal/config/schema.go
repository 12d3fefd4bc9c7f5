package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Server    ServerConf    `yaml:"server"`
	Log       LogConf       `yaml:"log"`
	Artifacts ArtifactsConf `yaml:"artifacts"`
	Churn     ChurnConf     `yaml:"churn"`
	Loan      LoanConf      `yaml:"loan"`
	Explain   ExplainConf   `yaml:"explain"`
	Cache     CacheConf     `yaml:"cache"`
	Audit     AuditConf     `yaml:"audit"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConf configures the structured logger. An empty File logs to stdout only.
type LogConf struct {
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"` // json | console
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ArtifactsConf locates the model directories.
type ArtifactsConf struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// ChurnConf tunes the churn flow.
type ChurnConf struct {
	Threshold        float64          `yaml:"threshold"`
	SentimentDefault *float64         `yaml:"sentiment_default"`
	CategoryDefaults CategoryDefaults `yaml:"category_defaults"`
}

// CategoryDefaults are the categorical tokens the churn form does not collect.
type CategoryDefaults struct {
	NativePlace     string `yaml:"native_place"`
	AccountType     string `yaml:"account_type"`
	LoanStatus      string `yaml:"loan_status"`
	BranchCode      string `yaml:"branch_code"`
	ReviewSentiment string `yaml:"review_sentiment"`
}

// LoanConf tunes the loan flow.
type LoanConf struct {
	Threshold float64 `yaml:"threshold"`
}

// ExplainConf sets how many factors are shown per prediction.
type ExplainConf struct {
	TopN int `yaml:"top_n"`
}

// CacheConf sizes the prediction memoization cache. Size 0 disables it.
type CacheConf struct {
	Size *int `yaml:"size"`
}

// AuditConf locates the prediction log. An empty Path disables auditing.
type AuditConf struct {
	Path string `yaml:"path"`
}
