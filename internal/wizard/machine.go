package wizard

import (
	"github.com/attestly/poa-backend/internal/validation"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// State is the complete interview position: current step, completed steps
// and the accumulated payload. States are values; every transition returns a
// new State and never mutates its input, so the machine stays a pure
// function of (state, event).
type State struct {
	StepID    string
	Completed map[string]bool
	Payload   validation.Payload
}

// Progress summarizes interview completion. Applicable excludes skipped
// steps and is recomputed whenever the payload changes which steps apply.
type Progress struct {
	CompletedSteps  int
	ApplicableSteps int
}

// Fraction returns completion in [0,1].
func (p Progress) Fraction() float64 {
	if p.ApplicableSteps == 0 {
		return 0
	}
	return float64(p.CompletedSteps) / float64(p.ApplicableSteps)
}

// Notifier receives change notifications so a caller can re-render or
// trigger autosave. The machine never calls out anywhere else.
type Notifier interface {
	StepChanged(from, to Step)
	SectionChanged(from, to string)
	StepCompleted(step Step)
	DataChanged(state State)
}

type noopNotifier struct{}

func (noopNotifier) StepChanged(Step, Step)    {}
func (noopNotifier) SectionChanged(string, string) {}
func (noopNotifier) StepCompleted(Step)        {}
func (noopNotifier) DataChanged(State)         {}

// Machine drives the interview. It holds no interview state of its own;
// callers thread State values through it.
type Machine struct {
	engine   *validation.Engine
	notifier Notifier
}

type Option func(*Machine)

// WithNotifier attaches a change observer.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) {
		if n != nil {
			m.notifier = n
		}
	}
}

func NewMachine(engine *validation.Engine, opts ...Option) (*Machine, error) {
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wizard machine requires a validation engine")
	}
	m := &Machine{engine: engine, notifier: noopNotifier{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewState positions a fresh interview at the first step.
func (m *Machine) NewState() State {
	return State{
		StepID:    chain[0].ID,
		Completed: map[string]bool{},
	}
}

// CurrentStep resolves the state's step definition. Falls forward when the
// recorded step is no longer applicable under the current payload.
func (m *Machine) CurrentStep(s State) Step {
	steps := Steps(&s.Payload)
	if idx := indexOf(steps, s.StepID); idx >= 0 {
		return steps[idx]
	}
	return fallForward(steps, s.StepID)
}

// CurrentSection returns the section of the current step.
func (m *Machine) CurrentSection(s State) string {
	return m.CurrentStep(s).Section
}

// SetPayload replaces the accumulated form data and reconciles the position:
// if the payload change made the current step inapplicable, the position
// falls forward to the nearest applicable step.
func (m *Machine) SetPayload(s State, p validation.Payload) State {
	next := cloneState(s)
	next.Payload = p

	steps := Steps(&next.Payload)
	if indexOf(steps, next.StepID) < 0 {
		from := next.StepID
		next.StepID = fallForward(steps, next.StepID).ID
		if next.StepID != from {
			m.notifyMove(s, next)
		}
	}

	m.notifier.DataChanged(next)
	return next
}

// Next runs step-scoped validation on the current step. On success it marks
// the step complete and advances past any skipped steps, crossing section
// boundaries as needed; moved reports whether the position changed. On
// failure the position stays put and the error list is returned. At the
// terminal step Next reports moved=false with no errors.
func (m *Machine) Next(s State) (State, bool, validation.ErrorList) {
	steps := Steps(&s.Payload)
	current := m.CurrentStep(s)

	if errs := m.engine.Validate(&s.Payload, validation.ModeStep(current.ID)); len(errs) > 0 {
		return s, false, errs
	}

	next := cloneState(s)
	next.Completed[current.ID] = true
	m.notifier.StepCompleted(current)

	idx := indexOf(steps, current.ID)
	if idx < 0 || idx+1 >= len(steps) {
		next.StepID = current.ID
		return next, false, nil
	}

	next.StepID = steps[idx+1].ID
	m.notifyMove(s, next)
	return next, true, nil
}

// Previous moves backward to the prior applicable step. Never blocked by
// validation. Reports moved=false at the first step.
func (m *Machine) Previous(s State) (State, bool) {
	steps := Steps(&s.Payload)
	current := m.CurrentStep(s)

	idx := indexOf(steps, current.ID)
	if idx <= 0 {
		return s, false
	}

	next := cloneState(s)
	next.StepID = steps[idx-1].ID
	m.notifyMove(s, next)
	return next, true
}

// MarkStepComplete records completion without advancing.
func (m *Machine) MarkStepComplete(s State, stepID string) State {
	next := cloneState(s)
	next.Completed[stepID] = true
	if step, ok := stepByID(stepID); ok {
		m.notifier.StepCompleted(step)
	}
	return next
}

// GetProgress counts completed applicable steps over total applicable steps.
// Completions recorded for steps that later became skipped do not count.
func (m *Machine) GetProgress(s State) Progress {
	steps := Steps(&s.Payload)
	done := 0
	for _, step := range steps {
		if s.Completed[step.ID] {
			done++
		}
	}
	return Progress{CompletedSteps: done, ApplicableSteps: len(steps)}
}

func (m *Machine) notifyMove(from, to State) {
	fromStep := m.CurrentStep(from)
	toStep := m.CurrentStep(to)
	m.notifier.StepChanged(fromStep, toStep)
	if fromStep.Section != toStep.Section {
		m.notifier.SectionChanged(fromStep.Section, toStep.Section)
	}
}

func cloneState(s State) State {
	completed := make(map[string]bool, len(s.Completed))
	for k, v := range s.Completed {
		completed[k] = v
	}
	s.Completed = completed
	return s
}

func indexOf(steps []Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// fallForward picks the nearest applicable step at or after the recorded
// position in the full chain; past the end it settles on the last
// applicable step.
func fallForward(applicable []Step, stepID string) Step {
	start := 0
	for i, s := range chain {
		if s.ID == stepID {
			start = i
			break
		}
	}
	for _, s := range chain[start:] {
		if indexOf(applicable, s.ID) >= 0 {
			return s
		}
	}
	return applicable[len(applicable)-1]
}
