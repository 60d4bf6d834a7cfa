package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"luaspark-server/internal/domain/chat"
	"luaspark-server/internal/domain/eventbus"
	"luaspark-server/internal/domain/llm"
	_ "luaspark-server/internal/domain/llm/openai"
	_ "luaspark-server/internal/domain/llm/polling"
	"luaspark-server/internal/domain/session"
	sessionstore "luaspark-server/internal/domain/session/store"
	"luaspark-server/internal/domain/user"
	userstore "luaspark-server/internal/domain/user/store"
	platformconfig "luaspark-server/internal/platform/config"
	platformerrors "luaspark-server/internal/platform/errors"
	platformlogging "luaspark-server/internal/platform/logging"
	platformstorage "luaspark-server/internal/platform/storage"
	httptransport "luaspark-server/internal/transport/http"
	httpwebapi "luaspark-server/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config   *platformconfig.Config
	logger   *platformlogging.Logger
	users    *user.Manager
	sessions *session.Registry
	provider llm.Provider
	chat     *chat.Service
}

// Run starts the full service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		eventbus.WaitAsync()
		if err := state.users.Close(); err != nil {
			logger.ErrorTag("STORE", "user store close failed: %v", err)
		}
		if err := state.sessions.Close(context.Background()); err != nil {
			logger.ErrorTag("AUTH", "session registry close failed: %v", err)
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	logger.InfoTag("BOOT", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("BOOT", "  %s", step.Title)
	}
	logger.InfoTag("BOOT", "starting services")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered initialisation steps and their dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-user-store",
			Title:     "Initialise user store",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initUserStoreStep,
		},
		{
			ID:        "session:init-registry",
			Title:     "Initialise session registry",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initSessionStep,
		},
		{
			ID:        "llm:init-provider",
			Title:     "Initialise LLM provider",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindConfig,
			Execute:   initLLMStep,
		},
		{
			ID:        "chat:init-service",
			Title:     "Initialise generation service",
			DependsOn: []string{"storage:init-user-store", "llm:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initChatStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	cfg, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = cfg
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialise logging", err)
	}

	state.logger = logger
	platformlogging.DefaultLogger = logger
	logger.InfoTag("BOOT", "logging ready [%s]", state.config.Log.Level)

	eventbus.SetupEventHandlers(logger)
	return nil
}

func initUserStoreStep(_ context.Context, state *appState) error {
	cfg := state.config.Store

	deps := userstore.Dependencies{Logger: state.logger}
	if cfg.Driver == userstore.DriverSQLite {
		db, err := platformstorage.Open(cfg.SQLite.DSN)
		if err != nil {
			return err
		}
		deps.SQLiteDB = db
	}

	s, err := userstore.New(userstore.Config{
		Driver:        cfg.Driver,
		Path:          cfg.Path,
		FlushInterval: cfg.FlushInterval,
	}, deps)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-user-store", "failed to initialise user store", err)
	}

	users, err := user.NewManager(user.Options{Store: s, Logger: state.logger})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "storage:init-user-store", "failed to initialise user manager", err)
	}
	state.users = users
	return nil
}

func initSessionStep(_ context.Context, state *appState) error {
	cfg := state.config.Session

	storeCfg := sessionstore.Config{
		Driver:     cfg.Driver,
		MaxPerUser: cfg.MaxPerUser,
	}
	if cfg.Driver == sessionstore.DriverRedis {
		storeCfg.Redis = &sessionstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}
	}

	s, err := sessionstore.New(storeCfg)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "session:init-registry", "failed to initialise session store", err)
	}

	registry, err := session.NewRegistry(s, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "session:init-registry", "failed to initialise session registry", err)
	}
	state.sessions = registry
	driver := cfg.Driver
	if driver == "" {
		driver = sessionstore.DriverMemory
	}
	state.logger.InfoTag("AUTH", "session registry ready (%s, cap %d)", driver, cfg.MaxPerUser)
	return nil
}

func initLLMStep(_ context.Context, state *appState) error {
	provider, err := llm.Create(state.config.LLM, state.logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "llm:init-provider", "failed to initialise llm provider", err)
	}
	state.provider = provider
	state.logger.InfoTag("LLM", "provider ready (%s)", state.config.LLM.Provider)
	return nil
}

func initChatStep(_ context.Context, state *appState) error {
	svc, err := chat.NewService(chat.Options{
		Users:        state.users,
		Provider:     state.provider,
		Logger:       state.logger,
		SystemPrompt: state.config.LLM.SystemPrompt,
		BypassEmail:  state.config.Auth.BypassEmail,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "chat:init-service", "failed to initialise generation service", err)
	}
	state.chat = svc
	return nil
}

func startHTTPServer(
	state *appState,
	g *errgroup.Group,
	groupCtx context.Context,
) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: httpwebapi.AuthMiddleware(state.sessions),
		StaticRoot:     config.Web.StaticDir,
	})
	if err != nil {
		return nil, err
	}

	webapiService, err := httpwebapi.NewService(state.users, state.sessions, state.chat, logger)
	if err != nil {
		logger.ErrorTag("HTTP", "web api init failed: %v", err)
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}

	if err := webapiService.Register(groupCtx, httpRouter.API, httpRouter.Secured); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:register", "failed to register routes", err)
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://localhost:%d", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server stopped gracefully")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "received shutdown signal, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("shutdown timed out")
		logger.ErrorTag("BOOT", "shutdown timed out, forcing exit")
		return timeoutErr
	}
	return nil
}
