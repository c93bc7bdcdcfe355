// Package config loads the engine's configuration surface from environment
// variables (WTFIX_*), following the precedence and viper setup used
// throughout the pack: environment first, then defaults.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's full external configuration surface, per the
// transport/session/sequence parameters this engine exposes.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	SenderCompID string `mapstructure:"sender_comp_id"`
	TargetCompID string `mapstructure:"target_comp_id"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	BeginString       string `mapstructure:"begin_string"`
	HeartbeatInterval int    `mapstructure:"heartbeat_interval"`
	ResetSeqNums      bool   `mapstructure:"reset_seq_nums"`
	TestMode          bool   `mapstructure:"test_mode"`

	SessionIDFile string `mapstructure:"session_id_file"`

	// StoreDSN, if non-empty, selects the durable SQLite store at this
	// path instead of the transient in-memory store.
	StoreDSN string `mapstructure:"store_dsn"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`

	// GroupTemplates is a JSON-encoded array of GroupTemplateSpec, extending
	// (or overriding) the dictionary package's built-in repeating-group
	// templates without a code change. Empty means "use the built-ins only".
	GroupTemplates string `mapstructure:"group_templates"`
}

// GroupTemplateSpec is the wire form of a dictionary.GroupTemplate: the
// identifier tag announcing the group, the message type it applies to
// ("*" for every message type without its own override), the ordered
// instance tags, and any nested group templates keyed by the instance tag
// that introduces them.
type GroupTemplateSpec struct {
	IdentifierTag int                 `json:"identifier_tag"`
	MsgType       string              `json:"msg_type"`
	InstanceTags  []int               `json:"instance_tags"`
	Nested        []GroupTemplateSpec `json:"nested,omitempty"`
}

// ParseGroupTemplates decodes GroupTemplates into its GroupTemplateSpec
// slice, returning (nil, nil) when no override is configured.
func (c *Config) ParseGroupTemplates() ([]GroupTemplateSpec, error) {
	if c.GroupTemplates == "" {
		return nil, nil
	}
	var specs []GroupTemplateSpec
	if err := json.Unmarshal([]byte(c.GroupTemplates), &specs); err != nil {
		return nil, fmt.Errorf("config: group_templates: %w", err)
	}
	return specs, nil
}

// envPrefix is the WTFIX_ prefix every environment variable is bound under,
// e.g. WTFIX_HOST, WTFIX_SENDER_COMP_ID.
const envPrefix = "WTFIX"

func defaults() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              9878,
		SenderCompID:      "CLIENT",
		TargetCompID:      "SERVER",
		BeginString:       "FIX.4.4",
		HeartbeatInterval: 30,
		ResetSeqNums:      true,
		TestMode:          false,
		SessionIDFile:     ".wtfix_session_id",
		HandshakeTimeout:  10 * time.Second,
	}
}

// Load reads configuration from WTFIX_-prefixed environment variables,
// falling back to defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaults()
	for key, value := range map[string]interface{}{
		"host":               cfg.Host,
		"port":               cfg.Port,
		"sender_comp_id":     cfg.SenderCompID,
		"target_comp_id":     cfg.TargetCompID,
		"username":           cfg.Username,
		"password":           cfg.Password,
		"begin_string":       cfg.BeginString,
		"heartbeat_interval": cfg.HeartbeatInterval,
		"reset_seq_nums":     cfg.ResetSeqNums,
		"test_mode":          cfg.TestMode,
		"session_id_file":    cfg.SessionIDFile,
		"store_dsn":          cfg.StoreDSN,
		"handshake_timeout":  cfg.HandshakeTimeout,
		"group_templates":    cfg.GroupTemplates,
	} {
		v.SetDefault(key, value)
	}

	loaded := Config{
		Host:              v.GetString("host"),
		Port:              v.GetInt("port"),
		SenderCompID:      v.GetString("sender_comp_id"),
		TargetCompID:      v.GetString("target_comp_id"),
		Username:          v.GetString("username"),
		Password:          v.GetString("password"),
		BeginString:       v.GetString("begin_string"),
		HeartbeatInterval: v.GetInt("heartbeat_interval"),
		ResetSeqNums:      v.GetBool("reset_seq_nums"),
		TestMode:          v.GetBool("test_mode"),
		SessionIDFile:     v.GetString("session_id_file"),
		StoreDSN:          v.GetString("store_dsn"),
		HandshakeTimeout:  v.GetDuration("handshake_timeout"),
		GroupTemplates:    v.GetString("group_templates"),
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}
	return &loaded, nil
}

// Validate checks that the configuration is complete enough to start a
// session.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.SenderCompID == "" {
		return fmt.Errorf("config: sender_comp_id must not be empty")
	}
	if c.TargetCompID == "" {
		return fmt.Errorf("config: target_comp_id must not be empty")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("config: heartbeat_interval must be positive, got %d", c.HeartbeatInterval)
	}
	if c.BeginString == "" {
		return fmt.Errorf("config: begin_string must not be empty")
	}
	return nil
}
