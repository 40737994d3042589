package usecase

import (
	"context"
	"fmt"
	"time"

	"sitecap/internal/application/port/input"
	"sitecap/internal/application/port/output"
	"sitecap/internal/application/service"
	"sitecap/internal/domain/entity"
)

const (
	defaultMaxTurns   = 20
	maxObservationLen = 8000
)

// RecordSessionUseCase drives one recording session: a turn-bounded
// conversation with the model where every tool call flows through the
// step recorder into the accumulator, and the accumulated document is
// persisted on every termination path.
type RecordSessionUseCase struct {
	llm    output.LLMPort
	tools  *service.StepRecorder
	acc    *service.Accumulator
	store  output.CapabilityStore
	logger output.LoggerPort

	sessionID    string
	domain       string
	systemPrompt string
	task         string
	maxTurns     int
	temperature  float32
}

type Config struct {
	SessionID    string
	Domain       string
	SystemPrompt string
	// Task is the user-turn instruction: the scenario to record.
	Task        string
	MaxTurns    int
	Temperature float32
}

var _ input.CapabilityRecorder = (*RecordSessionUseCase)(nil)

func NewRecordSessionUseCase(
	llm output.LLMPort,
	tools *service.StepRecorder,
	acc *service.Accumulator,
	store output.CapabilityStore,
	logger output.LoggerPort,
	cfg Config,
) *RecordSessionUseCase {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &RecordSessionUseCase{
		llm:          llm,
		tools:        tools,
		acc:          acc,
		store:        store,
		logger:       logger,
		sessionID:    cfg.SessionID,
		domain:       cfg.Domain,
		systemPrompt: cfg.SystemPrompt,
		task:         cfg.Task,
		maxTurns:     maxTurns,
		temperature:  cfg.Temperature,
	}
}

// Record runs the session to a terminal state. The result is non-nil on
// every path; err is non-nil only when the session failed, and the result
// still reflects whatever was persisted.
func (uc *RecordSessionUseCase) Record(ctx context.Context) (*entity.SessionResult, error) {
	started := time.Now()
	result := &entity.SessionResult{
		SessionID: uc.sessionID,
		Domain:    uc.domain,
		State:     entity.SessionRunning,
	}

	messages := []entity.Message{
		entity.SystemMessage(uc.systemPrompt),
		entity.UserMessage(uc.task),
	}
	toolDefs := uc.tools.Definitions()

	var fatal error

	uc.logger.Info("session started",
		"sessionID", uc.sessionID, "domain", uc.domain, "maxTurns", uc.maxTurns)

	for turn := 1; turn <= uc.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			result.State = entity.SessionFailed
			fatal = fmt.Errorf("session canceled: %w", err)
			break
		}
		result.Turns = turn
		uc.logger.Debug("starting turn", "turn", turn)

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: uc.temperature,
		})
		if err != nil {
			result.State = entity.SessionFailed
			fatal = fmt.Errorf("chat on turn %d: %w", turn, err)
			break
		}
		result.Usage.Add(resp.Usage)
		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			result.State = entity.SessionCompleted
			result.Summary = resp.Message.Content
			break
		}

		for _, tc := range resp.Message.ToolCalls {
			res := uc.tools.Execute(ctx, tc)
			if !res.Success {
				uc.logger.Warn("tool call failed", "tool", tc.Name, "error", res.Error)
			}
			messages = append(messages, entity.ToolReply(tc, truncateObservation(res.Observation())))
		}
	}

	if result.State == entity.SessionRunning {
		result.State = entity.SessionTurnLimitReached
		uc.logger.Info("turn limit reached", "turns", result.Turns)
	}
	if fatal != nil {
		result.Error = fatal.Error()
	}

	uc.persist(ctx, result)

	result.Success = result.State != entity.SessionFailed
	result.Duration = time.Since(started)
	result.Steps = uc.tools.Steps()

	pages, elements := uc.acc.Stats()
	uc.logger.Info("session finished",
		"sessionID", uc.sessionID,
		"state", string(result.State),
		"turns", result.Turns,
		"pagesTouched", pages,
		"elementsRecorded", elements,
		"tokens", result.Usage.Total,
	)
	return result, fatal
}

// persist snapshots the accumulator and saves it, detached from the
// session context so a cancellation still leaves the partial document on
// disk. A save failure is logged and surfaced on the result, but never
// overrides the session's own terminal state.
func (uc *RecordSessionUseCase) persist(ctx context.Context, result *entity.SessionResult) {
	snapshot := uc.acc.Snapshot()
	result.Capability = snapshot

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	path, err := uc.store.Save(saveCtx, snapshot)
	if err != nil {
		uc.logger.Error("failed to persist capability", "domain", uc.domain, "error", err)
		if result.Error == "" {
			result.Error = fmt.Sprintf("persist: %v", err)
		}
		return
	}
	result.SavedPath = path
	uc.logger.Info("capability persisted", "domain", uc.domain, "path", path)
}

func truncateObservation(s string) string {
	if len(s) <= maxObservationLen {
		return s
	}
	return s[:maxObservationLen] + "\n... (truncated)"
}
