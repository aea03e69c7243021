package controllers

import (
	"net/http"
	"time"

	"github.com/attestly/poa-backend/api/responses"
	"github.com/attestly/poa-backend/api/validators"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/internal/wizard"
	"github.com/attestly/poa-backend/pkg/logger"
)

type wizardStateRequest struct {
	Snapshot wizard.Snapshot `json:"snapshot"`
}

type wizardProgressDTO struct {
	CompletedSteps  int     `json:"completedSteps"`
	ApplicableSteps int     `json:"applicableSteps"`
	Fraction        float64 `json:"fraction"`
}

type wizardStateResponse struct {
	Snapshot wizard.Snapshot   `json:"snapshot"`
	Progress wizardProgressDTO `json:"progress"`
	Moved    bool              `json:"moved"`
	Source   string            `json:"source,omitempty"`
}

func progressDTO(m *wizard.Machine, s wizard.State) wizardProgressDTO {
	p := m.GetProgress(s)
	return wizardProgressDTO{
		CompletedSteps:  p.CompletedSteps,
		ApplicableSteps: p.ApplicableSteps,
		Fraction:        p.Fraction(),
	}
}

// WizardNext validates the current step and advances the interview. Step
// validation failures come back as a field-level error list; the position
// does not move.
func WizardNext(machine *wizard.Machine, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := wizardState(machine, poaSvc, w, r, logg)
		if !ok {
			return
		}

		next, moved, errs := machine.Next(state)
		if errList := errs.AsError(); errList != nil {
			responses.WriteError(r.Context(), logg, w, errList)
			return
		}

		responses.WriteSuccess(w, wizardStateResponse{
			Snapshot: machine.Serialize(next, time.Now().UTC()),
			Progress: progressDTO(machine, next),
			Moved:    moved,
		})
	}
}

// WizardPrevious steps back without validating. Moved is false at the first
// applicable step.
func WizardPrevious(machine *wizard.Machine, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := wizardState(machine, poaSvc, w, r, logg)
		if !ok {
			return
		}

		prev, moved := machine.Previous(state)
		responses.WriteSuccess(w, wizardStateResponse{
			Snapshot: machine.Serialize(prev, time.Now().UTC()),
			Progress: progressDTO(machine, prev),
			Moved:    moved,
		})
	}
}

// WizardAutosave persists the submitted snapshot to the autosave store.
func WizardAutosave(machine *wizard.Machine, store *wizard.AutosaveStore, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poaID, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := poaSvc.GetPOA(r.Context(), actor, poaID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req wizardStateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Round-trip through the machine so stored snapshots are always
		// positionally valid.
		state, err := machine.Deserialize(req.Snapshot)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := machine.Serialize(state, time.Now().UTC())
		if err := store.Save(r.Context(), poaID.String(), snap); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wizardStateResponse{
			Snapshot: snap,
			Progress: progressDTO(machine, state),
		})
	}
}

// WizardResume restores the interview, preferring the autosave snapshot and
// falling back to the stored draft payload.
func WizardResume(machine *wizard.Machine, store *wizard.AutosaveStore, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poaID, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if snap, ok, err := store.Load(r.Context(), poaID.String()); err == nil && ok {
			if state, derr := machine.Deserialize(snap); derr == nil {
				responses.WriteSuccess(w, wizardStateResponse{
					Snapshot: machine.Serialize(state, snap.SavedAt),
					Progress: progressDTO(machine, state),
					Source:   "autosave",
				})
				return
			}
			// A snapshot that no longer deserializes is stale; fall back
			// to the draft instead of failing resume.
		}

		payload, err := poaSvc.GetDraftPayload(r.Context(), actor, poaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := machine.SetPayload(machine.NewState(), *payload)
		responses.WriteSuccess(w, wizardStateResponse{
			Snapshot: machine.Serialize(state, time.Now().UTC()),
			Progress: progressDTO(machine, state),
			Source:   "draft",
		})
	}
}

// WizardDiscard drops any autosave snapshot for the POA.
func WizardDiscard(store *wizard.AutosaveStore, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poaID, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := poaSvc.GetPOA(r.Context(), actor, poaID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.Discard(r.Context(), poaID.String()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "discarded"})
	}
}

// wizardState authorizes the request and decodes the submitted snapshot
// into machine state. Writes the error response itself on failure.
func wizardState(machine *wizard.Machine, poaSvc poas.Service, w http.ResponseWriter, r *http.Request, logg *logger.Logger) (wizard.State, bool) {
	actor, err := requireActor(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return wizard.State{}, false
	}

	poaID, err := pathUUID(r, "poaId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return wizard.State{}, false
	}

	if _, err := poaSvc.GetPOA(r.Context(), actor, poaID); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return wizard.State{}, false
	}

	var req wizardStateRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return wizard.State{}, false
	}

	state, err := machine.Deserialize(req.Snapshot)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return wizard.State{}, false
	}
	return state, true
}
