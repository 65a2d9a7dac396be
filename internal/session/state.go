package session

import (
	"strings"

	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/transcript"
)

// Phase is where the live session is in its lifecycle.
type Phase int

const (
	PhaseIdle            Phase = iota // No session started
	PhaseAwaitingOpening              // Started, opening not yet produced
	PhaseAwaitingUser                 // Opening produced, waiting for the user's refusal
	PhaseAwaitingReply                // User message sent, reply not yet received
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingOpening:
		return "awaiting-opening"
	case PhaseAwaitingUser:
		return "awaiting-user"
	case PhaseAwaitingReply:
		return "awaiting-reply"
	}
	return "unknown"
}

// PendingRequest is the conversation to send to the completion service.
// The whole conversation is sent every time.
type PendingRequest struct {
	System   string
	Messages []transcript.Message
}

// State is the live state of one user's practice conversation.
type State struct {
	// Mode is the selected practice mode.
	Mode training.Mode

	// ElementID is the coached element. Empty in combined mode.
	ElementID string

	// Scenario is the user's free-text situation, possibly empty.
	Scenario string

	// Instruction is the system prompt for this session.
	Instruction string

	// Kickoff asks the model for the opening invitation. It is sent with
	// every request but is not part of the transcript.
	Kickoff transcript.Message

	// Transcript is the conversation in call order.
	Transcript []transcript.Message

	// OpeningProduced is true once the opening invitation was recorded.
	OpeningProduced bool

	// Pending is true while the last user message has no reply.
	Pending bool

	// Active is true between Start and the next Reset.
	Active bool

	// generation changes on every Start and Reset so replies that arrive
	// for a replaced session can be discarded.
	generation uint64
}

// NewState returns an idle state with per-element mode selected.
func NewState() *State {
	return &State{Mode: training.ModePerElement}
}

// Phase derives the lifecycle phase from the state flags.
func (s *State) Phase() Phase {
	switch {
	case !s.Active:
		return PhaseIdle
	case !s.OpeningProduced:
		return PhaseAwaitingOpening
	case s.Pending:
		return PhaseAwaitingReply
	default:
		return PhaseAwaitingUser
	}
}

// Start begins a new session. Per-element mode needs an element from
// elements; an invalid selection returns ErrInvalidModeSelection and
// leaves s untouched.
func (s *State) Start(mode training.Mode, elementID, scenario string, elements training.Set) error {
	switch mode {
	case training.ModeCombined:
		elementID = ""
	case training.ModePerElement:
		if elementID == "" {
			return invalidSelection("per-element mode needs an element")
		}
		if !elements.Contains(elementID) {
			return invalidSelection("unknown element " + elementID)
		}
	default:
		return invalidSelection("unknown mode " + string(mode))
	}

	gen := s.generation + 1
	*s = State{
		Mode:       mode,
		ElementID:  elementID,
		Scenario:   strings.TrimSpace(scenario),
		Active:     true,
		generation: gen,
	}
	return nil
}

// SetPrompt records the system instruction and the kickoff text.
func (s *State) SetPrompt(instruction, kickoff string) {
	s.Instruction = instruction
	s.Kickoff = transcript.Message{
		Role:          transcript.RoleUser,
		Content:       kickoff,
		Instructional: true,
	}
}

// OpeningRequest returns the request for the opening invitation.
func (s *State) OpeningRequest() (PendingRequest, error) {
	if !s.Active {
		return PendingRequest{}, ErrNoSession
	}
	if s.OpeningProduced {
		return PendingRequest{}, ErrOpeningAlreadyRecorded
	}
	return PendingRequest{
		System:   s.Instruction,
		Messages: []transcript.Message{s.Kickoff},
	}, nil
}

// RecordAssistantOpening appends the opening invitation. It may be called
// once per session.
func (s *State) RecordAssistantOpening(text string) error {
	if !s.Active {
		return ErrNoSession
	}
	if s.OpeningProduced {
		return ErrOpeningAlreadyRecorded
	}
	s.Transcript = append(s.Transcript, transcript.Message{Role: transcript.RoleAssistant, Content: text})
	s.OpeningProduced = true
	return nil
}

// RecordExchange appends the user's message and returns the full
// conversation to send.
func (s *State) RecordExchange(userText string) (PendingRequest, error) {
	switch s.Phase() {
	case PhaseIdle:
		return PendingRequest{}, ErrNoSession
	case PhaseAwaitingOpening:
		return PendingRequest{}, ErrNoOpening
	case PhaseAwaitingReply:
		return PendingRequest{}, ErrReplyPending
	}
	s.Transcript = append(s.Transcript, transcript.Message{Role: transcript.RoleUser, Content: userText})
	s.Pending = true
	return s.request(), nil
}

// PendingExchange rebuilds the request for an unanswered user message.
func (s *State) PendingExchange() (PendingRequest, bool) {
	if !s.Active || !s.Pending {
		return PendingRequest{}, false
	}
	return s.request(), true
}

// AppendAssistantReply appends the reply to the pending user message.
func (s *State) AppendAssistantReply(text string) error {
	if !s.Active {
		return ErrNoSession
	}
	if !s.Pending {
		return ErrNoPendingMessage
	}
	s.Transcript = append(s.Transcript, transcript.Message{Role: transcript.RoleAssistant, Content: text})
	s.Pending = false
	return nil
}

// Reset discards the live session. The mode and element selection are
// kept for the next Start.
func (s *State) Reset() {
	gen := s.generation + 1
	*s = State{Mode: s.Mode, ElementID: s.ElementID, generation: gen}
}

// ForceMode discards the live session and switches to mode with no
// element selected.
func (s *State) ForceMode(mode training.Mode) {
	s.Reset()
	s.Mode = mode
	s.ElementID = ""
}

// Messages returns everything that was sent and received, kickoff first.
// This is what a saved transcript contains.
func (s *State) Messages() []transcript.Message {
	if !s.Active {
		return nil
	}
	out := make([]transcript.Message, 0, len(s.Transcript)+1)
	out = append(out, s.Kickoff)
	return append(out, s.Transcript...)
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Transcript = transcript.Clone(s.Transcript)
	return &c
}

func (s *State) request() PendingRequest {
	msgs := make([]transcript.Message, 0, len(s.Transcript)+1)
	msgs = append(msgs, s.Kickoff)
	msgs = append(msgs, s.Transcript...)
	return PendingRequest{System: s.Instruction, Messages: msgs}
}
