package wizard

import (
	"time"

	"github.com/attestly/poa-backend/internal/validation"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// Snapshot is the serializable projection of an interview used for
// autosave/resume. Not a domain entity: it is owned by the session editing
// the draft and can be discarded at any time.
type Snapshot struct {
	SectionID      string             `json:"sectionId"`
	StepID         string             `json:"stepId"`
	CompletedSteps []string           `json:"completedSteps"`
	Payload        validation.Payload `json:"payload"`
	SavedAt        time.Time          `json:"savedAt"`
}

// Serialize captures the state as a Snapshot. The save time is a parameter
// so the capture stays a pure function of its inputs.
func (m *Machine) Serialize(s State, savedAt time.Time) Snapshot {
	completed := make([]string, 0, len(s.Completed))
	for _, step := range chain {
		if s.Completed[step.ID] {
			completed = append(completed, step.ID)
		}
	}
	return Snapshot{
		SectionID:      m.CurrentSection(s),
		StepID:         m.CurrentStep(s).ID,
		CompletedSteps: completed,
		Payload:        s.Payload,
		SavedAt:        savedAt,
	}
}

// Deserialize reconstructs interview state from a snapshot. The recorded
// position is honored only while the referenced step is still applicable
// under the restored payload; otherwise the position falls forward to the
// nearest applicable step.
func (m *Machine) Deserialize(snap Snapshot) (State, error) {
	if !validation.KnownStep(snap.StepID) {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "snapshot references an unknown step").
			WithDetails(map[string]any{"stepId": snap.StepID})
	}

	s := State{
		StepID:    snap.StepID,
		Completed: make(map[string]bool, len(snap.CompletedSteps)),
		Payload:   snap.Payload,
	}
	for _, id := range snap.CompletedSteps {
		if validation.KnownStep(id) {
			s.Completed[id] = true
		}
	}

	steps := Steps(&s.Payload)
	if indexOf(steps, s.StepID) < 0 {
		s.StepID = fallForward(steps, s.StepID).ID
	}
	return s, nil
}
