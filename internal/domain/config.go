package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string       `toml:"-"`
	Identity IdentityConfig `toml:"identity"`
	Project  ProjectConfig  `toml:"project"`
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`
}

// IdentityConfig holds the local actor from the [identity] section.
type IdentityConfig struct {
	URN string `toml:"urn,omitempty"` // scheme:method:id of the local author
}

// ProjectConfig holds the project from the [project] section.
type ProjectConfig struct {
	URN string `toml:"urn,omitempty"` // scheme:method:id of the project objects belong to
}

// StoreConfig holds object store settings from the [store] section.
type StoreConfig struct {
	Backend       string   `toml:"backend,omitempty"`        // "git" (default) or "redis"
	Namespace     string   `toml:"namespace,omitempty"`      // Ref namespace or key prefix (default: "cob")
	RedisURL      string   `toml:"redis_url,omitempty"`      // Redis URL for the redis backend
	Compression   string   `toml:"compression,omitempty"`    // "none" (default), "zstd" or "lz4"
	EncryptionKey string   `toml:"encryption_key,omitempty"` // Passphrase for sealing records (empty = plaintext)
	Peers         []string `toml:"peers,omitempty"`          // Peer namespaces merged on read (git backend)
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Store backends.
const (
	BackendGit   = "git"
	BackendRedis = "redis"
)

// Compression algorithms for stored records.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// Default configuration values.
const (
	DefaultNamespace = "cob"
	DefaultLogLevel  = "info"
	DefaultRedisURL  = "redis://localhost:6379/0"
)

// Directory and file names for git-cob.
const (
	CobDirName       = "cob"         // Directory name for cob data inside .git
	GlobalDirName    = "git-cob"     // Directory name under the user config home
	ConfigFileName   = "config.toml" // Config file name
	GlobalLogName    = "cob.log"     // Global log file name
	LogsDirName      = "logs"
	InitMarkerName   = "initialized"
	ObjectLogPattern = "%s.log"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:     BackendGit,
			Namespace:   DefaultNamespace,
			Compression: CompressionNone,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Author returns the configured local identity.
func (c *Config) Author() (Identity, error) {
	if c.Identity.URN == "" {
		return Identity{}, ErrNoIdentity
	}
	id, err := ParseIdentity(c.Identity.URN)
	if err != nil {
		return Identity{}, fmt.Errorf("identity.urn: %w", err)
	}
	return id, nil
}

// ProjectID returns the configured project identity.
func (c *Config) ProjectID() (Identity, error) {
	if c.Project.URN == "" {
		return Identity{}, ErrNoProject
	}
	id, err := ParseIdentity(c.Project.URN)
	if err != nil {
		return Identity{}, fmt.Errorf("project.urn: %w", err)
	}
	return id, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendGit, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	switch c.Store.Compression {
	case "", CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return fmt.Errorf("unknown compression %q", c.Store.Compression)
	}
	return nil
}

// RepoCobDir returns the cob directory path for a repository.
func RepoCobDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", CobDirName)
}

// RepoConfigPath returns the repo config path.
func RepoConfigPath(repoRoot string) string {
	return filepath.Join(RepoCobDir(repoRoot), ConfigFileName)
}

// GlobalCobDir returns the global cob directory path.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalCobDir(configHome string) string {
	return filepath.Join(configHome, GlobalDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalCobDir(configHome), ConfigFileName)
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(cobDir string) string {
	return filepath.Join(cobDir, LogsDirName, GlobalLogName)
}

// ObjectLogPath returns the path to an object's log file.
func ObjectLogPath(cobDir string, id ObjectID) string {
	return filepath.Join(cobDir, LogsDirName, fmt.Sprintf(ObjectLogPattern, id))
}

// InitMarkerPath returns the path of the file marking an initialized
// repository.
func InitMarkerPath(cobDir string) string {
	return filepath.Join(cobDir, InitMarkerName)
}

// RenderConfigTemplate renders a commented config file seeded from cfg.
func RenderConfigTemplate(cfg *Config) string {
	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		// Should never happen with valid data
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
