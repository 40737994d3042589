package di

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"sitecap/internal/adapter/tool"
	"sitecap/internal/application/port/input"
	"sitecap/internal/application/port/output"
	"sitecap/internal/application/service"
	"sitecap/internal/application/usecase"
	"sitecap/internal/config"
	"sitecap/internal/domain/entity"
	"sitecap/internal/infrastructure/browser/rod"
	"sitecap/internal/infrastructure/env"
	"sitecap/internal/infrastructure/llm/openrouter"
	"sitecap/internal/infrastructure/logger"
	"sitecap/internal/infrastructure/observer"
	"sitecap/internal/infrastructure/prompts"
	"sitecap/internal/infrastructure/store"

	"github.com/google/uuid"
)

const defaultModel = "openai/gpt-4o-mini"

// Container wires one recording session. Build it, run Recorder.Record,
// then Close on every path.
type Container struct {
	Logger    output.LoggerPort
	Store     output.CapabilityStore
	History   *store.SQLiteStore
	Browser   output.BrowserPort
	LLM       output.LLMPort
	Recorder  input.CapabilityRecorder
	SessionID string
	Domain    string

	steps *service.StepRecorder
}

type Options struct {
	// Progress receives one line per executed tool call; nil disables
	// console progress.
	Progress io.Writer
	Verbose  bool
}

func NewContainer(ctx context.Context, cfg *config.Session, opts Options) (*Container, error) {
	envService := env.NewService()
	apiKey, err := envService.Require("OPENROUTER_API_KEY")
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()

	log, err := logger.New(logger.Config{
		Dir:         cfg.Output.LogDir,
		SessionName: cfg.Domain,
		Console:     opts.Verbose,
		Verbose:     opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log.Info("session starting", "session_id", sessionID, "domain", cfg.Domain, "policy", cfg.MergePolicy)

	st, err := store.Open(cfg.Storage.Path, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open capability store: %w", err)
	}

	// The session audit trail always lands in the user data directory,
	// independent of where capability documents go.
	var history *store.SQLiteStore
	if historyPath, err := store.DefaultHistoryPath(); err == nil {
		history, err = store.OpenSQLite(historyPath)
		if err != nil {
			log.Warn("session history unavailable", "path", historyPath, "error", err)
			history = nil
		}
	} else {
		log.Warn("session history unavailable", "error", err)
	}

	seed, err := st.Load(ctx, cfg.Domain)
	if err != nil {
		closeAll(history, st, log)
		return nil, fmt.Errorf("load existing capability: %w", err)
	}

	policy, err := entity.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		closeAll(history, st, log)
		return nil, err
	}
	acc := service.NewAccumulator(seed, cfg.Domain, sessionID, policy, log)

	browser, err := rod.New(ctx, rod.Config{
		Headless:   cfg.Browser.IsHeadless(),
		Stealth:    cfg.Browser.Stealth,
		SlowMotion: time.Duration(cfg.Browser.SlowMotionMS) * time.Millisecond,
		Timeout:    time.Duration(cfg.Browser.TimeoutS) * time.Second,
		NoSandbox:  true,
	})
	if err != nil {
		closeAll(history, st, log)
		return nil, fmt.Errorf("create browser: %w", err)
	}

	model := envService.GetDefault("OPENROUTER_MODEL_NAME", defaultModel)
	if cfg.Model.Name != "" {
		model = cfg.Model.Name
	}
	llmCfg := openrouter.DefaultConfig(apiKey, model)
	if baseURL := envService.Get("OPENROUTER_BASE_URL"); baseURL != "" {
		llmCfg.BaseURL = baseURL
	}
	if cfg.Model.BaseURL != "" {
		llmCfg.BaseURL = cfg.Model.BaseURL
	}
	llmCfg.Logger = log
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	urlPattern := cfg.URLPattern
	if urlPattern == "" {
		urlPattern = "^" + regexp.QuoteMeta(cfg.StartURL)
	}
	surface := tool.NewSurface(browser, acc, log, tool.Config{
		AutoScroll:        cfg.Browser.AutoScrollEnabled(),
		DefaultURLPattern: urlPattern,
		ScreenshotDir:     cfg.Output.ScreenshotDir,
	})

	var sinks []service.StepSink
	if opts.Progress != nil {
		sinks = append(sinks, observer.NewConsoleSink(opts.Progress))
	}
	audit, err := observer.NewAuditSink(cfg.Output.AuditDir, sessionID)
	if err != nil {
		browser.Close()
		closeAll(history, st, log)
		return nil, fmt.Errorf("create audit sink: %w", err)
	}
	sinks = append(sinks, audit)

	steps := service.NewStepRecorder(surface, log, sinks...)

	systemPrompt, err := recorderPrompt(cfg, acc)
	if err != nil {
		_ = steps.Close()
		browser.Close()
		closeAll(history, st, log)
		return nil, fmt.Errorf("generate system prompt: %w", err)
	}

	uc := usecase.NewRecordSessionUseCase(llm, steps, acc, st, log, usecase.Config{
		SessionID:    sessionID,
		Domain:       cfg.Domain,
		SystemPrompt: systemPrompt,
		Task:         taskText(cfg),
		MaxTurns:     cfg.MaxTurns,
		Temperature:  cfg.Temperature,
	})

	return &Container{
		Logger:    log,
		Store:     st,
		History:   history,
		Browser:   browser,
		LLM:       llm,
		Recorder:  uc,
		SessionID: sessionID,
		Domain:    cfg.Domain,
		steps:     steps,
	}, nil
}

// Close releases session resources in reverse construction order. The
// step recorder goes first so the audit sink sees every event.
func (c *Container) Close() {
	if c.steps != nil {
		_ = c.steps.Close()
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.History != nil {
		_ = c.History.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}

func closeAll(history *store.SQLiteStore, st output.CapabilityStore, log output.LoggerPort) {
	if history != nil {
		_ = history.Close()
	}
	_ = st.Close()
	_ = log.Close()
}

func recorderPrompt(cfg *config.Session, acc *service.Accumulator) (string, error) {
	modules := make([]string, 0)
	for _, m := range entity.Modules() {
		modules = append(modules, string(m))
	}

	known := make([]prompts.PageSummary, 0)
	for pageType, elements := range acc.KnownPages() {
		known = append(known, prompts.PageSummary{PageType: pageType, Elements: elements})
	}

	return prompts.GenerateRecorderPrompt(prompts.RecorderSystemPrompt, prompts.RecorderPromptData{
		Domain:      cfg.Domain,
		MergePolicy: cfg.MergePolicy,
		Modules:     modules,
		KnownPages:  known,
		MaxTurns:    cfg.MaxTurns,
	})
}

func taskText(cfg *config.Session) string {
	return fmt.Sprintf("Start at %s.\n\nScenario: %s", cfg.StartURL, cfg.Scenario)
}
