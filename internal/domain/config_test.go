package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestRepoCobDir(t *testing.T) {
	got := RepoCobDir("/home/user/project")
	want := "/home/user/project/.git/cob"
	if got != want {
		t.Errorf("RepoCobDir() = %q, want %q", got, want)
	}
}

func TestRepoConfigPath(t *testing.T) {
	got := RepoConfigPath("/home/user/project")
	want := "/home/user/project/.git/cob/config.toml"
	if got != want {
		t.Errorf("RepoConfigPath() = %q, want %q", got, want)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	got := GlobalConfigPath("/home/user/.config")
	want := "/home/user/.config/git-cob/config.toml"
	if got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLogPaths(t *testing.T) {
	cobDir := "/repo/.git/cob"
	if got, want := GlobalLogPath(cobDir), "/repo/.git/cob/logs/cob.log"; got != want {
		t.Errorf("GlobalLogPath() = %q, want %q", got, want)
	}
	id := ObjectID("0123456789abcdef0123456789abcdef01234567")
	if got, want := ObjectLogPath(cobDir, id), "/repo/.git/cob/logs/"+string(id)+".log"; got != want {
		t.Errorf("ObjectLogPath() = %q, want %q", got, want)
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Store.Backend != BackendGit {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendGit)
	}
	if cfg.Store.Namespace != DefaultNamespace {
		t.Errorf("Store.Namespace = %q, want %q", cfg.Store.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_AuthorAndProject(t *testing.T) {
	cfg := NewDefaultConfig()

	if _, err := cfg.Author(); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Author() error = %v, want ErrNoIdentity", err)
	}
	if _, err := cfg.ProjectID(); !errors.Is(err, ErrNoProject) {
		t.Errorf("ProjectID() error = %v, want ErrNoProject", err)
	}

	cfg.Identity.URN = "did:key:alice"
	cfg.Project.URN = "not-a-urn"

	author, err := cfg.Author()
	if err != nil {
		t.Fatalf("Author() error = %v", err)
	}
	if author.String() != "did:key:alice" {
		t.Errorf("Author() = %q", author)
	}
	if _, err := cfg.ProjectID(); !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("ProjectID() error = %v, want ErrInvalidIdentity", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Validate() = %v, want ErrUnknownBackend", err)
	}

	cfg = NewDefaultConfig()
	cfg.Store.Compression = "brotli"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for unknown compression")
	}
}

func TestRenderConfigTemplate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Identity.URN = "did:key:alice"

	got := RenderConfigTemplate(cfg)

	for _, want := range []string{
		"[identity]",
		`urn = "did:key:alice"`,
		"# urn = \"rad:git:",
		`backend = "git"`,
		`namespace = "cob"`,
		`level = "info"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("template missing %q:\n%s", want, got)
		}
	}
}
