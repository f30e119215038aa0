package gamification

import (
	"time"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

type EventKind string

const (
	EventVisit    EventKind = "visit"
	EventScan     EventKind = "scan"
	EventDefi     EventKind = "defi"
	EventParcours EventKind = "parcours"
)

// ParcoursPointsPerStop is awarded per merchant of a completed parcours.
const ParcoursPointsPerStop = 50

// Event is a rewarded user action.
type Event struct {
	Kind EventKind
	// Target identifies what was visited or scanned, e.g. "place:3" or "merchant:7".
	Target string
	At     time.Time
	Where  geo.Coordinate
	// Home is the user's home coordinate, when known.
	Home *geo.Coordinate
	// Visits is how many times the user has now hit Target, this event included.
	Visits int
	// Distinct is how many distinct targets the user has now hit.
	Distinct int
	// Points is the base reward attached to the target.
	Points int
	// Stops is the merchant count of a completed parcours.
	Stops int
}

// PointsFor returns the reward for e.
func PointsFor(e Event) int {
	if e.Kind == EventParcours {
		return e.Stops * ParcoursPointsPerStop
	}
	return max(e.Points, 0)
}

// Rules maps events to achievement progress.
type Rules struct {
	// AdventureKm is the distance from home beyond which a visit counts as an adventure.
	AdventureKm float64
	// NightHour is the local hour from which a visit counts for the night owl.
	NightHour int
	// Location is the time zone local hours are read in. Nil means UTC.
	Location *time.Location
}

func DefaultRules() Rules {
	return Rules{AdventureKm: 5, NightHour: 22, Location: time.UTC}
}

// localHour is the hour of t on the wall clock of r.Location.
func (r Rules) localHour(t time.Time) int {
	if r.Location == nil {
		return t.UTC().Hour()
	}
	return t.In(r.Location).Hour()
}

// Apply advances achievements for e. It returns the updated list and the ids
// of achievements that became unlocked with this event.
func (r Rules) Apply(e Event, achievements []Achievement) ([]Achievement, []string) {
	out := make([]Achievement, len(achievements))
	var unlocked []string

	for i, a := range achievements {
		next := AdvanceAchievement(a, r.increment(e, a))
		if next.Unlocked && !a.Unlocked {
			unlocked = append(unlocked, a.ID)
		}
		out[i] = next
	}
	return out, unlocked
}

func (r Rules) increment(e Event, a Achievement) int {
	if e.Kind != EventVisit && e.Kind != EventScan {
		return 0
	}

	switch a.ID {
	case FirstVisit:
		return 1
	case UrbanExplorer:
		// Progress tracks distinct targets, not raw visits.
		return max(min(e.Distinct, a.MaxProgress)-a.Progress, 0)
	case LoyalCustomer:
		return max(min(e.Visits, a.MaxProgress)-a.Progress, 0)
	case Adventurer:
		if e.Home != nil && geo.Distance(*e.Home, e.Where) > r.AdventureKm {
			return 1
		}
	case NightOwl:
		if r.localHour(e.At) >= r.NightHour {
			return 1
		}
	}
	return 0
}
