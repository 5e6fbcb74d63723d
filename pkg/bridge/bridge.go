// Package bridge wires every component together around the guest process:
// tokenizer and router on its output, the single tagged writer on its input,
// the pollers, the dispatch queue consumer, and the ambition schedule.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"

	"genesisbridge/pkg/agent"
	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/channels"
	"genesisbridge/pkg/config"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/memstore"
	"genesisbridge/pkg/providers"
	"genesisbridge/pkg/robot"
	"genesisbridge/pkg/router"
	"genesisbridge/pkg/serial"
	"genesisbridge/pkg/state"
	"genesisbridge/pkg/tools"
	"genesisbridge/pkg/usage"
)

const dispatchQueueSize = 64

type Bridge struct {
	cfg      *config.Config
	guest    *Guest
	writer   *serial.Writer
	queue    *bus.Queue
	summary  *state.Summary
	store    *memstore.Store
	telegram *channels.TelegramChannel
	mailbox  *channels.Mailbox
	loop     *agent.AgentLoop
	router   *router.Router
	notify   *notifier
	usage    *usage.Store

	providerActive bool
}

func New(cfg *config.Config) (*Bridge, error) {
	workspace := cfg.WorkspacePath()
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	store, err := memstore.NewStore(cfg.MemoryPath())
	if err != nil {
		return nil, err
	}

	queue := bus.NewQueue(dispatchQueueSize)
	summary := state.NewSummary()
	limiter := state.NewNotifyLimiter(time.Duration(cfg.Notify.MinInterval) * time.Second)

	telegram, err := channels.NewTelegramChannel(cfg.Telegram, queue)
	if err != nil {
		return nil, err
	}
	notify := newNotifier(telegram, limiter)

	provider, active := selectProvider(cfg)
	logger.InfoCF("bridge", "Completion provider selected", map[string]interface{}{
		"provider": provider.Name(),
	})

	registry := buildToolRegistry(cfg, workspace, provider, telegram)
	history := agent.NewHistory(cfg.Agent.HistorySize)
	contextBuilder := agent.NewContextBuilder(summary, store)
	loop := agent.NewAgentLoop(provider, registry, history, contextBuilder, cfg.Agent.MaxToolIterations)

	usageStore, err := usage.NewStore(filepath.Join(workspace, "usage.json"))
	if err != nil {
		return nil, err
	}
	loop.SetUsageSink(func(u providers.Usage) {
		rec := usage.Record{
			Provider:         provider.Name(),
			Model:            cfg.Agent.Model,
			Source:           "agent",
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			UsageKnown:       u.Known,
		}
		if err := usageStore.Add(rec); err != nil {
			logger.WarnCF("bridge", "Usage record failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})

	guest, err := StartGuest(cfg.Guest.Command, cfg.Guest.Args)
	if err != nil {
		return nil, err
	}
	writer := serial.NewWriter(guest.Stdin())

	rt := router.NewRouter(queue, summary, store, writer, notify, active)

	mailbox, err := channels.NewMailbox(
		cfg.MailboxPath(),
		time.Duration(cfg.Mailbox.ScanInterval)*time.Second,
		queue, writer, telegram,
	)
	if err != nil {
		guest.Terminate()
		return nil, err
	}

	return &Bridge{
		cfg:            cfg,
		guest:          guest,
		writer:         writer,
		queue:          queue,
		summary:        summary,
		store:          store,
		telegram:       telegram,
		mailbox:        mailbox,
		loop:           loop,
		router:         rt,
		notify:         notify,
		usage:          usageStore,
		providerActive: active,
	}, nil
}

// selectProvider prefers Anthropic, falls back to OpenAI, and degrades to the
// simulated provider when no key is configured.
func selectProvider(cfg *config.Config) (providers.Provider, bool) {
	a := cfg.Providers.Anthropic
	o := cfg.Providers.OpenAI
	if a.APIKey != "" {
		return providers.NewAnthropicProvider(a.APIKey, a.APIBase, cfg.Agent.Model, cfg.Agent.MaxTokens, cfg.Agent.Temperature), true
	}
	if o.APIKey != "" {
		return providers.NewOpenAIProvider(o.APIKey, o.APIBase, cfg.Agent.Model, cfg.Agent.MaxTokens, cfg.Agent.Temperature), true
	}
	return providers.NewSimulatedProvider(), false
}

func buildToolRegistry(cfg *config.Config, workspace string, provider providers.Provider, telegram *channels.TelegramChannel) *tools.Registry {
	registry := tools.NewRegistry()

	execTimeout := time.Duration(cfg.Agent.ExecTimeoutSecs) * time.Second

	registry.Register(tools.NewWebFetchTool(10000))
	registry.Register(tools.NewRunPythonTool(workspace, execTimeout, cfg.Agent.ExecOutputLimit))
	registry.Register(tools.NewRunShellTool(workspace, execTimeout, cfg.Agent.ExecOutputLimit))
	registry.Register(tools.NewReadFileTool(workspace))
	registry.Register(tools.NewWriteFileTool(workspace))
	registry.Register(tools.NewListFilesTool(workspace))
	registry.Register(tools.NewCameraTool(cfg.Camera.Device, provider))
	if cfg.Logging.FileEnabled && cfg.Logging.FilePath != "" {
		registry.Register(tools.NewDebugLogsTool(config.ExpandHome(cfg.Logging.FilePath)))
	}

	sender := func(ctx context.Context, data []byte, caption string) error {
		return telegram.SendPhoto(ctx, data, caption)
	}
	var generator tools.ImageGenerator
	if o := cfg.Providers.OpenAI; o.APIKey != "" {
		generator = providers.NewOpenAIProvider(o.APIKey, o.APIBase, cfg.Agent.Model, cfg.Agent.MaxTokens, cfg.Agent.Temperature)
	}
	registry.Register(tools.NewGenerateImageTool(workspace, generator, sender))
	registry.Register(tools.NewSendPhotoTool(workspace, sender))

	if cfg.Robot.Enabled {
		registry.Register(robot.NewCommandTool(robot.NewClient(cfg.Robot.URL)))
	}

	logger.InfoCF("bridge", "Tool catalog ready", map[string]interface{}{
		"tools": registry.List(),
	})
	return registry
}

// Run blocks until the guest process exits or the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.summary.RecordBoot(time.Now())

	go b.telegram.Start(ctx)
	go b.mailbox.Start(ctx)
	go b.consumeQueue(ctx)
	go b.ambitionSchedule(ctx)

	tokenizer := serial.NewTokenizer(b.guest.Stdout(), os.Stdout, b.router.Route)
	go func() {
		if err := tokenizer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorCF("bridge", "Tokenizer stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	done := make(chan error, 1)
	go func() { done <- b.guest.Wait() }()

	select {
	case err := <-done:
		logger.InfoC("bridge", "Guest process exited")
		return err
	case <-ctx.Done():
		b.guest.Terminate()
		return <-done
	}
}

// Shutdown terminates the guest; Run then unblocks and reaps it.
func (b *Bridge) Shutdown() {
	b.guest.Terminate()
}

// ambitionSchedule publishes a morning-ambition request whenever the cron
// expression comes due. Minute granularity.
func (b *Bridge) ambitionSchedule(ctx context.Context) {
	expr := b.cfg.Ambition.Schedule
	if expr == "" {
		return
	}
	gron := gronx.New()
	if !gron.IsValid(expr) {
		logger.WarnCF("bridge", "Invalid ambition schedule", map[string]interface{}{
			"schedule": expr,
		})
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := gron.IsDue(expr, now)
			if err != nil || !due {
				continue
			}
			b.queue.Publish(bus.DispatchRequest{
				Source: bus.SourceSchedule,
				Target: bus.TargetAmbition,
			})
		}
	}
}
