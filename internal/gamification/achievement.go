package gamification

import "math"

// Achievement is a progress-tracked milestone. Progress never exceeds
// MaxProgress and Unlocked never reverts once set.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Unlocked    bool      `json:"unlocked"`
	Progress    int       `json:"progress"`
	MaxProgress int       `json:"maxProgress"`
	Color       [2]string `json:"color"`
}

// AdvanceAchievement adds increment to a's progress, capped at MaxProgress.
// Negative increments are ignored.
func AdvanceAchievement(a Achievement, increment int) Achievement {
	if increment < 0 {
		increment = 0
	}
	a.Progress = min(a.Progress+increment, a.MaxProgress)
	if a.Progress == a.MaxProgress {
		a.Unlocked = true
	}
	return a
}

const (
	FirstVisit     = "1"
	UrbanExplorer  = "2"
	LoyalCustomer  = "3"
	Adventurer     = "4"
	LocalSuperstar = "5"
	FoodPhotograph = "6"
	NightOwl       = "7"
	NeighbourTour  = "8"
)

// DefaultAchievements returns the achievement definitions with no progress.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: FirstVisit, Title: "Première visite", Description: "Visiter votre premier commerce local", Icon: "map-marker-check", MaxProgress: 1, Color: [2]string{"#4CAF50", "#8BC34A"}},
		{ID: UrbanExplorer, Title: "Explorateur urbain", Description: "Visiter 5 commerces différents", Icon: "compass", MaxProgress: 5, Color: [2]string{"#2196F3", "#03A9F4"}},
		{ID: LoyalCustomer, Title: "Fidèle client", Description: "Visiter le même commerce 3 fois", Icon: "heart", MaxProgress: 3, Color: [2]string{"#F44336", "#FF5722"}},
		{ID: Adventurer, Title: "Aventurier", Description: "Visiter un commerce à plus de 5km de chez vous", Icon: "rocket", MaxProgress: 1, Color: [2]string{"#9C27B0", "#673AB7"}},
		{ID: LocalSuperstar, Title: "Superstar locale", Description: "Partager 10 avis sur des commerces", Icon: "star", MaxProgress: 10, Color: [2]string{"#FFC107", "#FFEB3B"}},
		{ID: FoodPhotograph, Title: "Photographe culinaire", Description: "Prendre 5 photos dans des restaurants", Icon: "camera", MaxProgress: 5, Color: [2]string{"#607D8B", "#90A4AE"}},
		{ID: NightOwl, Title: "Noctambule", Description: "Visiter un commerce après 22h", Icon: "weather-night", MaxProgress: 1, Color: [2]string{"#3F51B5", "#5C6BC0"}},
		{ID: NeighbourTour, Title: "Tour du quartier", Description: "Visiter tous les commerces dans un rayon de 1km", Icon: "map", MaxProgress: 12, Color: [2]string{"#009688", "#4DB6AC"}},
	}
}

// Summary counts unlocked achievements.
type Summary struct {
	Unlocked int `json:"unlocked"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

func Summarize(achievements []Achievement) Summary {
	s := Summary{Total: len(achievements)}
	for _, a := range achievements {
		if a.Unlocked {
			s.Unlocked++
		}
	}
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Unlocked) / float64(s.Total) * 100))
	}
	return s
}
