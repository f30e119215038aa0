package server

import (
	"context"
	"errors"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrInactive  = errors.New("inactive")
)

// Visit is a rewarded presence at a target ("place:3", "merchant:7").
type Visit struct {
	Target string
	Points int
	Where  geo.Coordinate
	At     time.Time
}

// Outcome is the result of a rewarded action: the points granted, the new
// game state and the achievements it unlocked.
type Outcome struct {
	Points   int
	State    gamification.GameState
	Unlocked []string
	Nickname string
}

// Standing is one user's total, used to warm the leaderboard.
type Standing struct {
	UserID   int64
	Nickname string
	Points   int
}

type Store interface {
	CreateUser(ctx context.Context, u comhodl.User, passwordHash string) (comhodl.User, error)
	Credentials(ctx context.Context, email string) (comhodl.User, string, error)
	TouchLogin(ctx context.Context, userID int64, at time.Time) error
	User(ctx context.Context, userID int64) (comhodl.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd comhodl.ProfileUpdate) (comhodl.User, error)
	SetPreferences(ctx context.Context, userID int64, prefs []comhodl.Activity) (comhodl.User, error)
	CompleteQuestionnaire(ctx context.Context, userID int64) (comhodl.User, error)

	Merchants(ctx context.Context) ([]comhodl.Merchant, error)
	Merchant(ctx context.Context, id int64) (comhodl.Merchant, error)
	SearchMerchants(ctx context.Context, query string) ([]comhodl.Merchant, error)
	MerchantsByActivity(ctx context.Context, activity string) ([]comhodl.Merchant, error)
	MerchantQRCodes(ctx context.Context, merchantID int64) ([]comhodl.QRCode, error)
	MerchantDefis(ctx context.Context, merchantID int64) ([]comhodl.Defi, error)
	MerchantLots(ctx context.Context, merchantID int64) ([]comhodl.Lot, error)

	RecordVisit(ctx context.Context, userID int64, v Visit) (Outcome, error)
	RecordScan(ctx context.Context, userID int64, code string, at time.Time) (comhodl.QRCode, Outcome, error)

	ActiveDefis(ctx context.Context, now time.Time) ([]comhodl.Defi, error)
	Defi(ctx context.Context, id int64) (comhodl.Defi, error)
	CompleteDefi(ctx context.Context, userID, defiID int64, at time.Time) (comhodl.Defi, Outcome, error)

	StartParcours(ctx context.Context, userID int64, merchantIDs []int64, at time.Time) (comhodl.Parcours, error)
	CompleteParcours(ctx context.Context, userID, parcoursID int64, at time.Time) (comhodl.Parcours, Outcome, error)
	ActiveParcours(ctx context.Context, userID int64) ([]comhodl.Parcours, error)

	UserParcours(ctx context.Context, userID int64) ([]comhodl.Parcours, error)
	UserDefis(ctx context.Context, userID int64) ([]comhodl.CompletedDefi, error)
	UserScans(ctx context.Context, userID int64) ([]comhodl.QRScan, error)
	Achievements(ctx context.Context, userID int64) ([]gamification.Achievement, error)
	Standings(ctx context.Context) ([]Standing, error)
}
