// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/infra/compress"
	"github.com/runoshun/git-cob/internal/infra/config"
	"github.com/runoshun/git-cob/internal/infra/crypto"
	"github.com/runoshun/git-cob/internal/infra/git"
	"github.com/runoshun/git-cob/internal/infra/gitstore"
	"github.com/runoshun/git-cob/internal/infra/logging"
	"github.com/runoshun/git-cob/internal/infra/redisstore"
	"github.com/runoshun/git-cob/internal/issue"
	"github.com/runoshun/git-cob/internal/usecase"
)

// sealContext binds sealing keys to git-cob records.
const sealContext = "git-cob records"

// Config holds the application configuration paths.
type Config struct {
	RepoRoot string // Root directory of the git repository
	GitDir   string // Path to .git directory
	CobDir   string // Path to .git/cob directory
}

// newConfig creates a new Config from the git client.
func newConfig(gitClient *git.Client) Config {
	return Config{
		RepoRoot: gitClient.RepoRoot(),
		GitDir:   gitClient.GitDir(),
		CobDir:   gitClient.CobDir(),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Objects          domain.CollaborativeObjects
	StoreInitializer domain.StoreInitializer
	Syncer           domain.Syncer // nil when the backend cannot sync
	ConfigLoader     domain.ConfigLoader
	ConfigManager    domain.ConfigManager
	Logger           domain.Logger

	// Pointer fields
	AppConfig *domain.Config
	Slog      *slog.Logger
	closers   []func() error

	// Configuration
	Config Config
}

// New creates a new Container by detecting the git repository from the given directory.
func New(dir string) (*Container, error) {
	gitClient, err := git.NewClient(dir)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(gitClient)

	configLoader := config.NewLoader(cfg.CobDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(appConfig.Log.Level)
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		// Stderr only carries warnings unless debugging.
		Level: max(level, slog.LevelWarn),
	}))
	fileLogger := logging.New(cfg.CobDir, level).WithMirror(slogger)

	c := &Container{
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.CobDir),
		Logger:        fileLogger,
		AppConfig:     appConfig,
		Slog:          slogger,
		Config:        cfg,
		closers:       []func() error{fileLogger.Close},
	}
	if err := c.openStore(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// openStore builds the configured object store backend.
func (c *Container) openStore() error {
	storeCfg := c.AppConfig.Store

	tag, err := compress.ParseTag(storeCfg.Compression)
	if err != nil {
		return err
	}
	var sealer *crypto.Sealer
	if storeCfg.EncryptionKey != "" {
		sealer, err = crypto.NewSealer(storeCfg.EncryptionKey, sealContext)
		if err != nil {
			return fmt.Errorf("create sealer: %w", err)
		}
	}

	switch storeCfg.Backend {
	case domain.BackendRedis:
		url := storeCfg.RedisURL
		if url == "" {
			url = domain.DefaultRedisURL
		}
		store, err := redisstore.New(url, redisstore.Options{
			Namespace:   storeCfg.Namespace,
			Sealer:      sealer,
			Logger:      c.Logger,
			Compression: tag,
		})
		if err != nil {
			return err
		}
		c.Objects = store
		c.StoreInitializer = store
		c.closers = append(c.closers, store.Close)
		c.Slog.Debug("opened object store", "backend", domain.BackendRedis, "namespace", storeCfg.Namespace)
	case "", domain.BackendGit:
		store, err := gitstore.New(c.Config.RepoRoot, gitstore.Options{
			Namespace:   storeCfg.Namespace,
			Peers:       storeCfg.Peers,
			Sealer:      sealer,
			Logger:      c.Logger,
			Compression: tag,
		})
		if err != nil {
			return err
		}
		c.Objects = store
		c.StoreInitializer = store
		c.Syncer = store
		c.Slog.Debug("opened object store", "backend", domain.BackendGit,
			"namespace", store.Namespace(), "peers", storeCfg.Peers)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, storeCfg.Backend)
	}
	return nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, objects domain.CollaborativeObjects, storeInit domain.StoreInitializer, logger domain.Logger) *Container {
	return &Container{
		Objects:          objects,
		StoreInitializer: storeInit,
		Logger:           logger,
		AppConfig:        appConfig,
		Slog:             slog.New(slog.DiscardHandler),
		Config:           cfg,
	}
}

// Close releases log files and store connections.
func (c *Container) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

// Author returns the configured local identity, or the zero identity if
// none is set. Mutating use cases reject the zero identity.
func (c *Container) Author() domain.Identity {
	author, err := c.AppConfig.Author()
	if err != nil {
		return domain.Identity{}
	}
	return author
}

// Issues returns the issue service for the configured project.
func (c *Container) Issues() (*issue.Issues, error) {
	project, err := c.AppConfig.ProjectID()
	if err != nil {
		return nil, err
	}
	if c.StoreInitializer != nil && !c.StoreInitializer.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}
	return issue.New(c.Objects, project, issue.DefaultKind(), c.Logger), nil
}

// UseCase factory methods

// InitRepoUseCase returns a new InitRepo use case.
func (c *Container) InitRepoUseCase() *usecase.InitRepo {
	return usecase.NewInitRepo(c.StoreInitializer)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// SyncObjectsUseCase returns a new SyncObjects use case.
func (c *Container) SyncObjectsUseCase() *usecase.SyncObjects {
	return usecase.NewSyncObjects(c.Syncer, c.Logger)
}

// CreateIssueUseCase returns a new CreateIssue use case.
func (c *Container) CreateIssueUseCase() (*usecase.CreateIssue, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewCreateIssue(issues, c.Author(), c.Logger), nil
}

// AddCommentUseCase returns a new AddComment use case.
func (c *Container) AddCommentUseCase() (*usecase.AddComment, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewAddComment(issues, c.Author(), c.Logger), nil
}

// SetIssueStateUseCase returns a new SetIssueState use case.
func (c *Container) SetIssueStateUseCase() (*usecase.SetIssueState, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewSetIssueState(issues, c.Author(), c.Logger), nil
}

// LabelIssueUseCase returns a new LabelIssue use case.
func (c *Container) LabelIssueUseCase() (*usecase.LabelIssue, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewLabelIssue(issues, c.Author(), c.Logger), nil
}

// ReactToCommentUseCase returns a new ReactToComment use case.
func (c *Container) ReactToCommentUseCase() (*usecase.ReactToComment, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewReactToComment(issues, c.Author(), c.Logger), nil
}

// ShowIssueUseCase returns a new ShowIssue use case.
func (c *Container) ShowIssueUseCase() (*usecase.ShowIssue, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewShowIssue(issues), nil
}

// ListIssuesUseCase returns a new ListIssues use case.
func (c *Container) ListIssuesUseCase() (*usecase.ListIssues, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewListIssues(issues), nil
}

// ShowHistoryUseCase returns a new ShowHistory use case.
func (c *Container) ShowHistoryUseCase() (*usecase.ShowHistory, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewShowHistory(issues), nil
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() (*usecase.ShowLogs, error) {
	issues, err := c.Issues()
	if err != nil {
		return nil, err
	}
	return usecase.NewShowLogs(issues, c.Config.CobDir), nil
}
