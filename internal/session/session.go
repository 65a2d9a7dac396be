package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/gate"
	"github.com/abhisek/kotowari/internal/llm"
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/prompt"
	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/transcript"
	"github.com/abhisek/kotowari/internal/verdict"
)

// Default completion limits.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// VerdictRecorder stores per-element verdicts. store.EventRepo satisfies it.
type VerdictRecorder interface {
	AppendVerdictEvent(ctx context.Context, data store.VerdictEventData) error
}

// Deps are the collaborators of a Coach.
type Deps struct {
	Provider  llm.Provider
	Progress  *progress.Store
	ChatLog   *chatlog.Log
	Extractor *verdict.Extractor
	Verdicts  VerdictRecorder // optional
	Logger    *zap.Logger

	MaxTokens   int
	Temperature float64
}

// Turn is the outcome of one completion.
type Turn struct {
	// Reply is the assistant text appended to the transcript.
	Reply string

	// Verdict is set in per-element mode for replies to the user.
	Verdict verdict.Verdict

	// ElementID is the coached element, if any.
	ElementID string

	// NewlyPassed is true when this reply passed the element for the first time.
	NewlyPassed bool

	// CombinedUnlocked is true when this reply made combined mode available.
	CombinedUnlocked bool

	// Modes is the gate after this turn.
	Modes gate.Modes
}

// ResetResult reports the effect of a progress reset.
type ResetResult struct {
	Progress progress.Record
	Modes    gate.Modes

	// Forced is true when the active mode was forced back to per-element.
	Forced bool
}

// Coach drives practice conversations for one user at a time.
//
// State changes only after the completion service returns. The mutex
// guards Coach fields but is not held across completion calls, so readers
// such as a UI can inspect state while a reply is pending.
type Coach struct {
	deps     Deps
	elements training.Set
	logger   *zap.Logger

	mu     sync.Mutex
	userID string
	record progress.Record
	modes  gate.Modes
	state  *State
}

// NewCoach creates a Coach and loads userID's progress.
func NewCoach(ctx context.Context, deps Deps, userID string) *Coach {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = verdict.NewExtractor(verdict.DefaultTokens(), deps.Logger)
	}
	if deps.MaxTokens <= 0 {
		deps.MaxTokens = DefaultMaxTokens
	}
	c := &Coach{
		deps:     deps,
		elements: deps.Progress.Elements(),
		logger:   deps.Logger,
		state:    NewState(),
	}
	c.SwitchUser(ctx, userID)
	return c
}

// SwitchUser makes userID the active user. The live session is discarded
// and progress is reloaded.
func (c *Coach) SwitchUser(ctx context.Context, userID string) {
	userID = strings.TrimSpace(userID)
	rec := c.deps.Progress.Load(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.record = rec
	c.modes = gate.Evaluate(c.elements, rec)
	c.state.Reset()
	c.state.Mode = training.ModePerElement
	c.state.ElementID = ""
	c.logger.Debug("user switched", zap.String("user", userID),
		zap.Int("passed", rec.PassedCount(c.elements)))
}

// UserID returns the active user.
func (c *Coach) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Elements returns the training elements.
func (c *Coach) Elements() training.Set {
	return c.elements
}

// Modes returns the currently selectable modes.
func (c *Coach) Modes() gate.Modes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modes
}

// Progress returns a copy of the active user's progress.
func (c *Coach) Progress() progress.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// State returns a snapshot of the live session.
func (c *Coach) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Start begins a session and requests the opening invitation. Combined
// mode must be unlocked; per-element mode needs a valid element. A
// rejected selection changes nothing. If the opening request fails the
// session stays started and Retry requests the opening again.
func (c *Coach) Start(ctx context.Context, mode training.Mode, elementID, scenario string) (Turn, error) {
	c.mu.Lock()
	if c.userID == "" {
		c.mu.Unlock()
		return Turn{}, ErrNoUser
	}
	if mode == training.ModeCombined && !c.modes.CombinedAvailable {
		c.mu.Unlock()
		return Turn{}, ErrModeLocked
	}
	if err := c.state.Start(mode, elementID, scenario, c.elements); err != nil {
		c.mu.Unlock()
		return Turn{}, err
	}
	el, _ := c.elements.Lookup(c.state.ElementID)
	c.state.SetPrompt(
		prompt.System(mode, el, c.deps.Extractor),
		prompt.Kickoff(c.state.Scenario),
	)
	c.logger.Info("session started",
		zap.String("user", c.userID),
		zap.String("mode", string(mode)),
		zap.String("element", c.state.ElementID),
		zap.Bool("scenario", c.state.Scenario != ""))
	c.mu.Unlock()

	return c.requestOpening(ctx)
}

// Send records the user's message and requests the reply. On failure the
// message stays in the transcript unanswered; use Retry to resend it.
func (c *Coach) Send(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	req, err := c.state.RecordExchange(text)
	gen := c.state.generation
	c.mu.Unlock()
	if err != nil {
		return Turn{}, err
	}

	return c.completeExchange(ctx, req, gen)
}

// Retry resends whatever is outstanding: a failed opening or an
// unanswered user message.
func (c *Coach) Retry(ctx context.Context) (Turn, error) {
	c.mu.Lock()
	phase := c.state.Phase()
	req, _ := c.state.PendingExchange()
	gen := c.state.generation
	c.mu.Unlock()

	switch phase {
	case PhaseIdle:
		return Turn{}, ErrNoSession
	case PhaseAwaitingOpening:
		return c.requestOpening(ctx)
	case PhaseAwaitingReply:
		return c.completeExchange(ctx, req, gen)
	}
	return Turn{}, ErrNothingToRetry
}

// NewScenario discards the live session. Mode and element stay selected.
func (c *Coach) NewScenario() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
}

// SaveTranscript appends the live conversation to the chat log.
func (c *Coach) SaveTranscript(ctx context.Context) (chatlog.Entry, error) {
	c.mu.Lock()
	userID := c.userID
	var msgs []transcript.Message
	if len(c.state.Transcript) > 0 {
		msgs = c.state.Messages()
	}
	c.mu.Unlock()

	if userID == "" {
		return chatlog.Entry{}, ErrNoUser
	}
	return c.deps.ChatLog.Append(ctx, userID, msgs)
}

// History returns the active user's saved transcripts, oldest first.
func (c *Coach) History(ctx context.Context) []chatlog.Entry {
	return c.deps.ChatLog.List(ctx, c.UserID())
}

// FindHistory returns the active user's saved transcript with sessionID.
func (c *Coach) FindHistory(ctx context.Context, sessionID string) (chatlog.Entry, bool) {
	return c.deps.ChatLog.Find(ctx, c.UserID(), sessionID)
}

// DeleteHistory removes one saved transcript.
func (c *Coach) DeleteHistory(ctx context.Context, sessionID string) (bool, error) {
	return c.deps.ChatLog.Delete(ctx, c.UserID(), sessionID)
}

// ResetProgress clears every element for the active user. If combined
// mode was selected it is forced back to per-element and the live
// session is discarded. The in-memory reset applies even when saving it
// fails.
func (c *Coach) ResetProgress(ctx context.Context) (ResetResult, error) {
	userID := c.UserID()
	if userID == "" {
		return ResetResult{}, ErrNoUser
	}
	rec, err := c.deps.Progress.Reset(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = rec
	forced := c.applyGateLocked()
	return ResetResult{Progress: rec.Clone(), Modes: c.modes, Forced: forced}, err
}

// SaveProgress persists the in-memory progress. Use it to retry after an
// AtRiskError.
func (c *Coach) SaveProgress(ctx context.Context) error {
	c.mu.Lock()
	userID := c.userID
	rec := c.record.Clone()
	c.mu.Unlock()

	if userID == "" {
		return ErrNoUser
	}
	return c.deps.Progress.Save(ctx, userID, rec)
}

// applyGateLocked re-evaluates the gate and forces the session mode back
// when combined practice is no longer available. c.mu must be held.
func (c *Coach) applyGateLocked() bool {
	c.modes = gate.Evaluate(c.elements, c.record)
	mode, forced := gate.Resolve(c.state.Mode, c.modes)
	if forced {
		c.state.ForceMode(mode)
		c.logger.Info("combined mode locked, switched to per-element",
			zap.String("user", c.userID))
	}
	return forced
}

func (c *Coach) requestOpening(ctx context.Context) (Turn, error) {
	c.mu.Lock()
	req, err := c.state.OpeningRequest()
	gen := c.state.generation
	modes := c.modes
	c.mu.Unlock()
	if err != nil {
		return Turn{}, err
	}

	text, err := c.generate(llm.WithPurpose(ctx, llm.PurposeOpening), req)
	if err != nil {
		return Turn{}, &CompletionError{Op: string(llm.PurposeOpening), Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.generation != gen {
		return Turn{}, ErrSessionReplaced
	}
	if err := c.state.RecordAssistantOpening(text); err != nil {
		return Turn{}, err
	}
	return Turn{Reply: text, ElementID: c.state.ElementID, Modes: modes}, nil
}

func (c *Coach) completeExchange(ctx context.Context, req PendingRequest, gen uint64) (Turn, error) {
	text, err := c.generate(llm.WithPurpose(ctx, llm.PurposeReply), req)
	if err != nil {
		c.logger.Warn("reply failed, message left unanswered", zap.Error(err))
		return Turn{}, &CompletionError{Op: string(llm.PurposeReply), Err: err}
	}

	c.mu.Lock()
	if c.state.generation != gen || !c.state.Pending {
		c.mu.Unlock()
		return Turn{}, ErrSessionReplaced
	}
	userID := c.userID
	mode := c.state.Mode
	elementID := c.state.ElementID
	rec := c.record
	wasUnlocked := c.modes.CombinedAvailable
	c.mu.Unlock()

	turn := Turn{Reply: text, ElementID: elementID}

	var saveErr error
	if mode == training.ModePerElement {
		turn.Verdict = c.deps.Extractor.Extract(elementID, text)
		if turn.Verdict == verdict.Pass {
			rec, turn.NewlyPassed, saveErr = c.deps.Progress.MarkPassed(ctx, userID, rec, elementID)
		}
		c.recordVerdict(ctx, userID, elementID, turn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.generation != gen {
		return Turn{}, ErrSessionReplaced
	}
	if turn.NewlyPassed {
		c.record = rec
		c.applyGateLocked()
	}
	if err := c.state.AppendAssistantReply(text); err != nil {
		return Turn{}, err
	}
	turn.Modes = c.modes
	turn.CombinedUnlocked = !wasUnlocked && c.modes.CombinedAvailable

	if saveErr != nil {
		c.logger.Error("element pass not persisted",
			zap.String("user", userID), zap.String("element", elementID), zap.Error(saveErr))
		return turn, &AtRiskError{ElementID: elementID, Err: saveErr}
	}
	return turn, nil
}

func (c *Coach) generate(ctx context.Context, req PendingRequest) (string, error) {
	msgs := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = llm.Message{Role: llm.Role(m.Role), Content: m.Content}
	}
	resp, err := c.deps.Provider.Generate(ctx, llm.Request{
		System:      req.System,
		Messages:    msgs,
		MaxTokens:   c.deps.MaxTokens,
		Temperature: c.deps.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Coach) recordVerdict(ctx context.Context, userID, elementID string, turn Turn) {
	if c.deps.Verdicts == nil {
		return
	}
	err := c.deps.Verdicts.AppendVerdictEvent(context.WithoutCancel(ctx), store.VerdictEventData{
		UserID:      userID,
		ElementID:   elementID,
		Verdict:     string(turn.Verdict),
		NewlyPassed: turn.NewlyPassed,
	})
	if err != nil {
		c.logger.Warn("failed to record verdict event", zap.Error(err))
	}
}

// IsRetryable reports whether err leaves work that Retry can resend.
func IsRetryable(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce)
}

// Describe returns a one-line user-facing message for err.
func Describe(err error) string {
	var (
		ce   *CompletionError
		risk *AtRiskError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &risk):
		return fmt.Sprintf("%s の合格を保存できませんでした。もう一度保存を試してください。", risk.ElementID)
	case errors.Is(err, ErrModeLocked):
		return "総合実践は、すべての要素に合格すると選択できます。"
	case errors.Is(err, ErrInvalidModeSelection):
		return "練習する要素を選んでください。"
	case errors.Is(err, chatlog.ErrEmptyTranscript):
		return "保存する会話履歴がありません。"
	case errors.Is(err, store.ErrWriteFailed):
		return "保存に失敗しました。"
	case errors.As(err, &ce):
		return "AIの応答を取得できませんでした。再試行してください。"
	}
	return err.Error()
}
