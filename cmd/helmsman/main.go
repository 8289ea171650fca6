// Helmsman is the decision engine of an autonomous device assistant:
// it resolves chat messages and scheduled triggers into device actions,
// gated behind confirmation and a safe-mode flag.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/coopco/helmsman/internal/agent"
	"github.com/coopco/helmsman/internal/bus"
	"github.com/coopco/helmsman/internal/channels"
	"github.com/coopco/helmsman/internal/clock"
	"github.com/coopco/helmsman/internal/config"
	"github.com/coopco/helmsman/internal/cron"
	"github.com/coopco/helmsman/internal/device"
	"github.com/coopco/helmsman/internal/dispatch"
	"github.com/coopco/helmsman/internal/engine"
	"github.com/coopco/helmsman/internal/pipeline"
	"github.com/coopco/helmsman/internal/providers"
	"github.com/coopco/helmsman/internal/scheduler"
	"github.com/coopco/helmsman/internal/session"
	"github.com/coopco/helmsman/internal/settings"
	"github.com/coopco/helmsman/internal/tools"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.helmsman/config.json)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	setupLogging(*logLevel)

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "helmsman: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workspace := cfg.Assistant.Workspace
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	store := settings.NewStore(filepath.Join(workspace, "settings.json"))
	if err := store.Load(); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	cronStore := cron.NewStore(filepath.Join(workspace, "crontab"), cfg.Assistant.CronMaxJobs)
	if err := cronStore.Load(); err != nil {
		return fmt.Errorf("load cron store: %w", err)
	}

	clk := clock.NewSystem(cfg.Assistant.DefaultTimezone)
	if tz := store.Timezone(); tz != "" {
		if err := clk.SetZone(tz); err != nil {
			slog.Warn("stored timezone not usable", "zone", tz, "error", err)
		}
	}

	provider, model, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewWebGetTool())
	registry.Register(tools.NewManageCronTool(cronStore))
	registry.Register(tools.NewSettingsTool(store))
	loop := agent.NewLoop(agent.Config{
		Provider:      provider,
		Tools:         registry,
		Model:         model,
		MaxTokens:     cfg.Assistant.MaxTokens,
		Temperature:   cfg.Assistant.Temperature,
		MaxIterations: cfg.Assistant.MaxToolIterations,
		SystemPrompt:  "You are the research arm of a small device assistant. Use the tools to gather what the request needs, then answer concisely.",
	})

	chatExec := &chatExecutor{provider: provider, model: model}
	dispatcher := dispatch.New(dispatch.Config{
		Settings: store,
		Clock:    clk,
		Cron:     cronStore,
		BotName:  cfg.Assistant.BotName,
		Executors: dispatch.Executors{
			Relay:    device.Stub{},
			LED:      device.Stub{},
			Firmware: device.Stub{},
			Email:    device.Stub{},
			Pages:    device.Stub{},
			Search:   &searchExecutor{loop: loop},
			Chat:     chatExec,
		},
	})

	sessions := session.NewManager(filepath.Join(workspace, "sessions"))
	resolver := pipeline.New(pipeline.Config{
		Dispatcher:     dispatcher,
		Classifier:     pipeline.NewLLMClassifier(provider, model, store),
		Reasoner:       loop,
		Chatter:        pipeline.NewChatResponder(provider, sessions, model, store.Persona, store),
		MaxResponseLen: cfg.Assistant.MaxResponseLen,
	})

	msgBus := bus.NewMessageBus(64)

	// The scheduler emits into the engine and the engine ticks the
	// scheduler; the closure breaks the construction cycle. Emit only
	// runs from engine ticks, after eng is set.
	var eng *engine.Engine
	sched := scheduler.New(scheduler.Config{
		Clock:             clk,
		Cron:              cronStore,
		Settings:          store,
		Emit:              func(cmd string) { eng.Inject(cmd) },
		StatusInterval:    cfg.Scheduler.StatusInterval(),
		HeartbeatInterval: cfg.Scheduler.HeartbeatInterval(),
		ProactiveInterval: cfg.Scheduler.ProactiveInterval(),
		MaxCatchUp:        cfg.Scheduler.MaxCatchUp,
	})
	eng = engine.New(engine.Config{
		Bus:           msgBus,
		Scheduler:     sched,
		Resolver:      resolver,
		Clock:         clk,
		NotifyChannel: cfg.Notify.Channel,
		NotifyChat:    cfg.Notify.ChatID,
	})

	manager := channels.NewManager(msgBus)
	if cfg.Channels.Telegram.Token != "" {
		raw, _ := json.Marshal(cfg.Channels.Telegram)
		if err := manager.AddChannel("telegram", raw); err != nil {
			return err
		}
	}
	if cfg.Channels.Discord.Token != "" {
		raw, _ := json.Marshal(cfg.Channels.Discord)
		if err := manager.AddChannel("discord", raw); err != nil {
			return err
		}
	}
	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	defer func() {
		if err := manager.StopAll(); err != nil {
			slog.Error("channel shutdown failed", "error", err)
		}
	}()

	slog.Info("helmsman started",
		"workspace", workspace,
		"provider", cfg.Assistant.Provider,
		"model", model,
		"channels", channels.RegisteredNames(),
		"timezone", clk.Zone())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msgBus.DispatchOutbound(gctx)
		return nil
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		slog.Info("helmsman stopped")
		return nil
	}
	return err
}

func buildProvider(cfg *config.Config) (providers.Provider, string, error) {
	name := cfg.Assistant.Provider
	var pc config.ProviderConfig
	switch name {
	case "openai", "":
		pc = cfg.Providers.OpenAI
	case "anthropic":
		pc = cfg.Providers.Anthropic
	case "custom":
		pc = cfg.Providers.Custom
	default:
		return nil, "", fmt.Errorf("unknown provider %q", name)
	}

	model := cfg.Assistant.Model
	if pc.DefaultModel != "" && model == "" {
		model = pc.DefaultModel
	}
	p, err := providers.New(name, pc.APIKey, pc.BaseURL, model)
	if err != nil {
		return nil, "", fmt.Errorf("build provider: %w", err)
	}
	return p, model, nil
}

// chatExecutor backs device.Chat with a single provider call.
type chatExecutor struct {
	provider providers.Provider
	model    string
}

func (c *chatExecutor) Reply(ctx context.Context, prompt string) (string, error) {
	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:    c.model,
		Messages: []providers.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// searchExecutor backs device.Search with the tool-using agent loop.
type searchExecutor struct {
	loop *agent.Loop
}

func (s *searchExecutor) Search(ctx context.Context, query string) (string, error) {
	return s.loop.Run(ctx, "Research the following and summarize what you find in a few sentences: "+query)
}
