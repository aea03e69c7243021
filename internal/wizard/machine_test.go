package wizard

import (
	"testing"
	"time"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/types"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(validation.NewEngine())
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m
}

func intPtr(v int) *int { return &v }

func testAddress() types.Address {
	return types.Address{Line1: "100 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
}

func durablePayloadTX() validation.Payload {
	return validation.Payload{
		POAType:   "durable",
		State:     "TX",
		IsDurable: true,
		Principal: validation.PrincipalInput{
			FullName:    "Maria Santos",
			DateOfBirth: "1958-03-14",
			Email:       "maria@example.com",
			Address:     testAddress(),
		},
		Agents: []validation.AgentInput{
			{Type: "primary", FullName: "Carlos Santos", Email: "carlos@example.com", Address: testAddress()},
		},
		GrantedPowers: validation.GrantedPowersInput{GrantAllPowers: true},
		NotaryPublic:  &validation.NotaryInput{FullName: "Nora Notary", Address: testAddress()},
	}
}

func TestNewStateStartsAtTypeStep(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	if got := m.CurrentStep(s).ID; got != validation.StepPOAType {
		t.Fatalf("expected first step %q, got %q", validation.StepPOAType, got)
	}
	if got := m.CurrentSection(s); got != SectionInstrument {
		t.Fatalf("expected section %q, got %q", SectionInstrument, got)
	}
}

func TestNextBlockedByStepValidation(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, validation.Payload{POAType: "durable"})

	moved, errs := advance(m, &s)
	if moved {
		t.Fatal("next should not advance with a missing state")
	}
	if len(errs) == 0 {
		t.Fatal("expected step-scoped errors")
	}
	if got := m.CurrentStep(s).ID; got != validation.StepPOAType {
		t.Fatalf("position should not move, got %q", got)
	}

	// Going back is never blocked by validity.
	if _, movedBack := m.Previous(s); movedBack {
		t.Fatal("previous at the first step should report no move")
	}
}

func advance(m *Machine, s *State) (bool, validation.ErrorList) {
	next, moved, errs := m.Next(*s)
	*s = next
	return moved, errs
}

func TestNextWalksApplicableChain(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())

	want := []string{
		validation.StepPrincipal,
		validation.StepPrimaryAgent,
		validation.StepMoreAgents,
		validation.StepPowers,
		validation.StepEffective,
		validation.StepNotary,
		validation.StepReview,
	}
	for _, expected := range want {
		moved, errs := advance(m, &s)
		if len(errs) > 0 {
			t.Fatalf("unexpected errors advancing to %q: %+v", expected, errs)
		}
		if !moved {
			t.Fatalf("expected to move to %q", expected)
		}
		if got := m.CurrentStep(s).ID; got != expected {
			t.Fatalf("expected step %q, got %q", expected, got)
		}
	}

	// Texas durable financial: no witnesses required, and the directive,
	// springing and limited steps are skipped.
	if m.CurrentStep(s).ID != validation.StepReview {
		t.Fatalf("expected terminal step, got %q", m.CurrentStep(s).ID)
	}

	moved, errs := advance(m, &s)
	if moved || len(errs) > 0 {
		t.Fatalf("terminal next should report moved=false with no errors, got moved=%v errs=%+v", moved, errs)
	}
}

func TestPreviousUnconditional(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())
	advance(m, &s)
	advance(m, &s)

	// Invalidate the payload; previous still moves.
	p := s.Payload
	p.Principal.Email = "not-an-email"
	s = m.SetPayload(s, p)

	s, moved := m.Previous(s)
	if !moved {
		t.Fatal("previous should always move when not at the first step")
	}
	if got := m.CurrentStep(s).ID; got != validation.StepPrincipal {
		t.Fatalf("expected %q, got %q", validation.StepPrincipal, got)
	}
}

func TestSpringingStepsApplicable(t *testing.T) {
	p := durablePayloadTX()
	p.POAType = "springing"
	p.IsDurable = false
	p.IsSpringing = true

	steps := Steps(&p)
	if indexOf(steps, validation.StepSpringing) < 0 {
		t.Fatal("springing details should be applicable")
	}
	if indexOf(steps, validation.StepEffective) >= 0 {
		t.Fatal("effective date should be skipped for springing powers")
	}
	if indexOf(steps, validation.StepDirectives) >= 0 {
		t.Fatal("directives should be skipped for financial powers")
	}
}

func TestHealthcareStepsApplicable(t *testing.T) {
	p := validation.Payload{POAType: "healthcare", State: "CA"}

	steps := Steps(&p)
	if indexOf(steps, validation.StepDirectives) < 0 {
		t.Fatal("directives should be applicable for healthcare powers")
	}
	if indexOf(steps, validation.StepPowers) >= 0 {
		t.Fatal("financial powers step should be skipped for healthcare")
	}
	// California healthcare: two witnesses, no notary.
	if indexOf(steps, validation.StepWitnesses) < 0 {
		t.Fatal("witnesses should be applicable in California")
	}
	if indexOf(steps, validation.StepNotary) >= 0 {
		t.Fatal("notary should be skipped for California healthcare")
	}
}

func TestProgressTracksApplicableSteps(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())

	total := len(Steps(&s.Payload))
	prog := m.GetProgress(s)
	if prog.ApplicableSteps != total || prog.CompletedSteps != 0 {
		t.Fatalf("unexpected initial progress %+v", prog)
	}

	advance(m, &s)
	advance(m, &s)
	prog = m.GetProgress(s)
	if prog.CompletedSteps != 2 {
		t.Fatalf("expected 2 completed, got %d", prog.CompletedSteps)
	}
	if prog.Fraction() <= 0 || prog.Fraction() >= 1 {
		t.Fatalf("unexpected fraction %v", prog.Fraction())
	}
}

func TestProgressExcludesStepsThatBecameSkipped(t *testing.T) {
	m := newTestMachine(t)

	p := durablePayloadTX()
	p.POAType = "springing"
	p.IsDurable = false
	p.IsSpringing = true
	p.SpringingCondition = "incapacity certified in writing"
	p.NumberOfPhysiciansRequired = intPtr(2)

	s := m.NewState()
	s = m.SetPayload(s, p)
	s = m.MarkStepComplete(s, validation.StepSpringing)

	before := m.GetProgress(s)

	// Switching back to durable skips the springing step; its completion
	// no longer counts.
	p.POAType = "durable"
	p.IsDurable = true
	p.IsSpringing = false
	s = m.SetPayload(s, p)

	after := m.GetProgress(s)
	if after.CompletedSteps != before.CompletedSteps-1 {
		t.Fatalf("expected completed to drop by one, before=%+v after=%+v", before, after)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())
	advance(m, &s)
	advance(m, &s)

	snap := m.Serialize(s, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	restored, err := m.Deserialize(snap)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if got := m.CurrentStep(restored).ID; got != m.CurrentStep(s).ID {
		t.Fatalf("restored step %q, want %q", got, m.CurrentStep(s).ID)
	}
	if m.GetProgress(restored) != m.GetProgress(s) {
		t.Fatalf("restored progress %+v, want %+v", m.GetProgress(restored), m.GetProgress(s))
	}
}

func TestDeserializeFallsForwardWhenStepSkipped(t *testing.T) {
	m := newTestMachine(t)

	p := durablePayloadTX()
	p.POAType = "springing"
	p.IsDurable = false
	p.IsSpringing = true

	s := m.NewState()
	s = m.SetPayload(s, p)
	s.StepID = validation.StepSpringing

	snap := m.Serialize(s, time.Now())

	// The payload changed externally: the draft is durable again, so the
	// springing step is no longer part of the interview.
	snap.Payload.POAType = "durable"
	snap.Payload.IsDurable = true
	snap.Payload.IsSpringing = false

	restored, err := m.Deserialize(snap)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got := m.CurrentStep(restored).ID; got != validation.StepEffective {
		t.Fatalf("expected fall-forward to %q, got %q", validation.StepEffective, got)
	}
}

func TestDeserializeRejectsUnknownStep(t *testing.T) {
	m := newTestMachine(t)

	if _, err := m.Deserialize(Snapshot{StepID: "no-such-step"}); err == nil {
		t.Fatal("expected an error for an unknown step")
	}
}

type recordingNotifier struct {
	stepChanges    int
	sectionChanges int
	completions    int
	dataChanges    int
}

func (r *recordingNotifier) StepChanged(Step, Step)        { r.stepChanges++ }
func (r *recordingNotifier) SectionChanged(string, string) { r.sectionChanges++ }
func (r *recordingNotifier) StepCompleted(Step)            { r.completions++ }
func (r *recordingNotifier) DataChanged(State)             { r.dataChanges++ }

func TestNotifierObservesTransitions(t *testing.T) {
	rec := &recordingNotifier{}
	m, err := NewMachine(validation.NewEngine(), WithNotifier(rec))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())
	if rec.dataChanges != 1 {
		t.Fatalf("expected one data change, got %d", rec.dataChanges)
	}

	advance(m, &s)
	if rec.completions != 1 || rec.stepChanges != 1 {
		t.Fatalf("expected completion and step change, got %+v", rec)
	}
	// poa-type -> principal crosses instrument -> parties.
	if rec.sectionChanges != 1 {
		t.Fatalf("expected a section change, got %d", rec.sectionChanges)
	}
}
