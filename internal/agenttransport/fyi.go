package agenttransport

import "github.com/qingwen-guan/allied-citadels/internal/obs"

// FYIKind is the closed enum of non-blocking, information-only
// notifications the engine fans out alongside blocking requests.
type FYIKind string

const (
	FYIObsChanged                  FYIKind = "obs_changed"
	FYIFirstRoleDropped            FYIKind = "first_role_dropped"
	FYILastRoleDropped             FYIKind = "last_role_dropped"
	FYIVillainChooseRoleRequested  FYIKind = "villain_choose_role_requested"
	FYIVillainChooseRoleResponded  FYIKind = "villain_choose_role_responded"
)

// FYINotification is one information-only event. Obs is populated only for
// ObsChanged; Detail carries kind-specific scalars (e.g. the picking
// offset and the remaining-role count for VillainChooseRoleRequested).
type FYINotification struct {
	Kind   FYIKind        `json:"kind"`
	Obs    *obs.Obs       `json:"obs,omitempty"`
	Detail map[string]int `json:"detail,omitempty"`
}

// FYIAgent receives non-blocking notifications; Notify must never suspend
// the caller, matching the engine's requirement that FYI delivery never
// blocks the round loop.
type FYIAgent interface {
	Notify(n FYINotification)
}

// FYIBroadcaster fans a notification out to every registered FYIAgent,
// swallowing individual agent failures (an FYI delivery is best-effort).
type FYIBroadcaster struct {
	Agents []FYIAgent
}

func (b *FYIBroadcaster) Notify(n FYINotification) {
	for _, a := range b.Agents {
		if a != nil {
			a.Notify(n)
		}
	}
}
