package gamification

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

func TestAwardPoints(t *testing.T) {
	tests := []struct {
		name      string
		points    int
		delta     int
		want      int
		wantLevel int
		wantNext  int
	}{
		{"level boundary", 75, 25, 100, 2, 200},
		{"zero delta", 75, 0, 75, 1, 100},
		{"from zero", 0, 150, 150, 2, 200},
		{"just below boundary", 0, 99, 99, 1, 100},
		{"several levels", 320, 500, 820, 9, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AwardPoints(GameState{Points: tt.points}, tt.delta)
			if err != nil {
				t.Fatalf("AwardPoints: %v", err)
			}
			if got.Points != tt.want {
				t.Errorf("Points = %d, want %d", got.Points, tt.want)
			}
			if got.Level() != tt.wantLevel {
				t.Errorf("Level() = %d, want %d", got.Level(), tt.wantLevel)
			}
			if got.NextLevel() != tt.wantNext {
				t.Errorf("NextLevel() = %d, want %d", got.NextLevel(), tt.wantNext)
			}
		})
	}
}

func TestAwardPointsNegative(t *testing.T) {
	state := GameState{Points: 40}
	got, err := AwardPoints(state, -5)
	if !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("err = %v, want ErrInvalidDelta", err)
	}
	if got.Points != 40 {
		t.Errorf("points changed on error: %d", got.Points)
	}
}

func TestSnapshot(t *testing.T) {
	s := GameState{Points: 250}.Snapshot()
	if s.Points != 250 || s.Level != 3 || s.NextLevel != 300 {
		t.Errorf("Snapshot() = %+v", s)
	}
	if p := (GameState{Points: 250}).LevelProgress(); p != 0.5 {
		t.Errorf("LevelProgress() = %v, want 0.5", p)
	}
}

func TestAdvanceAchievement(t *testing.T) {
	a := Achievement{ID: "x", Progress: 2, MaxProgress: 3}

	a = AdvanceAchievement(a, 1)
	if a.Progress != 3 || !a.Unlocked {
		t.Fatalf("after +1: %+v, want progress 3 unlocked", a)
	}

	a = AdvanceAchievement(a, 5)
	if a.Progress != 3 || !a.Unlocked {
		t.Fatalf("after +5: %+v, want capped at 3 and still unlocked", a)
	}

	a = AdvanceAchievement(a, -10)
	if a.Progress != 3 || !a.Unlocked {
		t.Fatalf("after -10: %+v, want unchanged", a)
	}
}

func TestAdvanceAchievementStaysLocked(t *testing.T) {
	a := AdvanceAchievement(Achievement{MaxProgress: 5}, 2)
	if a.Unlocked || a.Progress != 2 {
		t.Errorf("got %+v, want progress 2 locked", a)
	}
}

func TestSummarize(t *testing.T) {
	list := DefaultAchievements()
	list[0].Unlocked = true
	list[1].Unlocked = true

	s := Summarize(list)
	if s.Unlocked != 2 || s.Total != 8 || s.Percent != 25 {
		t.Errorf("Summarize = %+v, want 2/8 25%%", s)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}

func TestRulesApply(t *testing.T) {
	home := geo.Coordinate{Latitude: 43.6089, Longitude: 3.8797}
	rules := DefaultRules()

	list := DefaultAchievements()
	evening := time.Date(2025, 5, 3, 22, 30, 0, 0, time.UTC)

	list, unlocked := rules.Apply(Event{
		Kind:     EventVisit,
		Target:   "place:6",
		At:       evening,
		Where:    geo.Coordinate{Latitude: 43.6222, Longitude: 3.8122},
		Home:     &home,
		Visits:   1,
		Distinct: 1,
	}, list)

	// Mosson is about 5.6 km from the Comédie.
	want := map[string]bool{FirstVisit: true, NightOwl: true, Adventurer: true}
	if len(unlocked) != len(want) {
		t.Fatalf("unlocked = %v, want %v", unlocked, want)
	}
	for _, id := range unlocked {
		if !want[id] {
			t.Errorf("unexpected unlock %q", id)
		}
	}

	byID := map[string]Achievement{}
	for _, a := range list {
		byID[a.ID] = a
	}
	if byID[UrbanExplorer].Progress != 1 {
		t.Errorf("urban explorer progress = %d, want 1", byID[UrbanExplorer].Progress)
	}
	if byID[LoyalCustomer].Progress != 1 || byID[LoyalCustomer].Unlocked {
		t.Errorf("loyal customer = %+v, want 1/3 locked", byID[LoyalCustomer])
	}
}

func TestRulesAdventurer(t *testing.T) {
	home := geo.Coordinate{Latitude: 48.856614, Longitude: 2.3522219}
	list, unlocked := DefaultRules().Apply(Event{
		Kind:     EventVisit,
		At:       time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC),
		Where:    geo.Coordinate{Latitude: 43.6089, Longitude: 3.8797},
		Home:     &home,
		Visits:   1,
		Distinct: 1,
	}, DefaultAchievements())

	found := false
	for _, id := range unlocked {
		if id == Adventurer {
			found = true
		}
	}
	if !found {
		t.Fatalf("unlocked = %v, want adventurer", unlocked)
	}
	for _, a := range list {
		if a.ID == NightOwl && a.Progress != 0 {
			t.Error("night owl advanced for a morning visit")
		}
	}
}

func TestRulesLoyalAndExplorerTrackCounts(t *testing.T) {
	rules := DefaultRules()
	list := DefaultAchievements()
	at := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)

	for visit := 1; visit <= 4; visit++ {
		list, _ = rules.Apply(Event{Kind: EventScan, At: at, Visits: visit, Distinct: 1}, list)
	}

	for _, a := range list {
		switch a.ID {
		case LoyalCustomer:
			if a.Progress != 3 || !a.Unlocked {
				t.Errorf("loyal customer = %+v, want 3/3 unlocked", a)
			}
		case UrbanExplorer:
			if a.Progress != 1 {
				t.Errorf("urban explorer progress = %d, want 1", a.Progress)
			}
		}
	}
}

func TestRulesIgnoreNonVisitEvents(t *testing.T) {
	list, unlocked := DefaultRules().Apply(Event{Kind: EventDefi, Points: 40}, DefaultAchievements())
	if len(unlocked) != 0 {
		t.Errorf("unlocked = %v, want none", unlocked)
	}
	for _, a := range list {
		if a.Progress != 0 {
			t.Errorf("%s advanced on defi event", a.ID)
		}
	}
}

func TestPointsFor(t *testing.T) {
	if got := PointsFor(Event{Kind: EventVisit, Points: 150}); got != 150 {
		t.Errorf("visit = %d", got)
	}
	if got := PointsFor(Event{Kind: EventParcours, Stops: 3}); got != 150 {
		t.Errorf("parcours = %d", got)
	}
	if got := PointsFor(Event{Kind: EventScan, Points: -4}); got != 0 {
		t.Errorf("negative base = %d, want 0", got)
	}
}

func TestRulesNightOwlReadsLocalHour(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	// 21:30 UTC is 23:30 in Paris in summer.
	visit := Event{Kind: EventVisit, At: time.Date(2025, 6, 2, 21, 30, 0, 0, time.UTC), Visits: 1, Distinct: 1}
	// The same instant, read from a clock that reports Paris time.
	parisClock := visit
	parisClock.At = visit.At.In(paris)

	tests := []struct {
		name     string
		location *time.Location
		event    Event
		want     bool
	}{
		{"paris rules, utc clock", paris, visit, true},
		{"paris rules, paris clock", paris, parisClock, true},
		{"utc rules, paris clock", time.UTC, parisClock, false},
		{"nil location is utc", nil, parisClock, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.Location = tt.location
			_, unlocked := rules.Apply(tt.event, DefaultAchievements())
			got := false
			for _, id := range unlocked {
				if id == NightOwl {
					got = true
				}
			}
			if got != tt.want {
				t.Errorf("night owl unlocked = %v, want %v (unlocked %v)", got, tt.want, unlocked)
			}
		})
	}
}
