// Package comhodl defines the backend records shared by the server and the
// REST client. It has no dependencies beyond the geo package.
package comhodl

import (
	"time"

	"github.com/bdsalocin/comhodl-api/internal/geo"
)

// MinPasswordLength is the shortest password accepted on registration.
const MinPasswordLength = 6

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "Autre"
)

type FamilySituation string

const (
	FamilySingle FamilySituation = "Célibataire"
	FamilyCouple FamilySituation = "Couple"
	FamilyFamily FamilySituation = "Famille"
)

type Activity string

const (
	ActivityResto    Activity = "Resto"
	ActivityShopping Activity = "Shopping"
	ActivityCulture  Activity = "Culture"
)

// Valid reports whether a is one of the known activity preferences.
func (a Activity) Valid() bool {
	switch a {
	case ActivityResto, ActivityShopping, ActivityCulture:
		return true
	}
	return false
}

// Valid reports whether s is a known sex value.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexOther
}

// Valid reports whether f is a known family situation.
func (f FamilySituation) Valid() bool {
	return f == FamilySingle || f == FamilyCouple || f == FamilyFamily
}

type SubscriptionStatus string

const (
	SubscriptionFree SubscriptionStatus = "Gratuit"
	SubscriptionPaid SubscriptionStatus = "Payant"
)

type QRCodeStatus string

const (
	QRCodeActive   QRCodeStatus = "Actif"
	QRCodeInactive QRCodeStatus = "Inactif"
)

type DefiStatus string

const (
	DefiActive   DefiStatus = "Actif"
	DefiFinished DefiStatus = "Terminé"
)

type ParcoursStatus string

const (
	ParcoursInProgress ParcoursStatus = "En cours"
	ParcoursFinished   ParcoursStatus = "Terminé"
	ParcoursAbandoned  ParcoursStatus = "Abandonné"
)

// User is a registered app user. The password hash never leaves the store.
type User struct {
	ID                int64           `json:"id"`
	Email             string          `json:"email"`
	LastName          string          `json:"nom"`
	FirstName         string          `json:"prenom"`
	Nickname          string          `json:"pseudo"`
	Sex               Sex             `json:"sexe"`
	Age               *int            `json:"age,omitempty"`
	BirthDate         *string         `json:"date_naissance,omitempty"`
	Address           string          `json:"adresse,omitempty"`
	Commune           string          `json:"commune,omitempty"`
	Departement       string          `json:"departement,omitempty"`
	Country           string          `json:"pays,omitempty"`
	Phone             string          `json:"numero_telephone,omitempty"`
	FamilySituation   FamilySituation `json:"situation_familiale,omitempty"`
	WithChildren      bool            `json:"avec_enfants"`
	ChildrenAges      string          `json:"age_enfants,omitempty"`
	Preferences       []Activity      `json:"preferences_activites"`
	Points            int             `json:"points_disponibles"`
	RegisteredAt      time.Time       `json:"date_inscription"`
	LastLogin         *time.Time      `json:"derniere_connexion,omitempty"`
	QuestionnaireDone bool            `json:"questionnaire_complete"`
	Home              *geo.Coordinate `json:"domicile,omitempty"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	LastName        *string          `json:"nom,omitempty"`
	FirstName       *string          `json:"prenom,omitempty"`
	Nickname        *string          `json:"pseudo,omitempty"`
	Sex             *Sex             `json:"sexe,omitempty" validate:"omitempty,sexe"`
	Age             *int             `json:"age,omitempty" validate:"omitempty,gte=0"`
	BirthDate       *string          `json:"date_naissance,omitempty"`
	Address         *string          `json:"adresse,omitempty"`
	Commune         *string          `json:"commune,omitempty"`
	Departement     *string          `json:"departement,omitempty"`
	Country         *string          `json:"pays,omitempty"`
	Phone           *string          `json:"numero_telephone,omitempty"`
	FamilySituation *FamilySituation `json:"situation_familiale,omitempty" validate:"omitempty,family"`
	WithChildren    *bool            `json:"avec_enfants,omitempty"`
	ChildrenAges    *string          `json:"age_enfants,omitempty"`
	Home            *geo.Coordinate  `json:"domicile,omitempty" validate:"omitempty"`
}

type Merchant struct {
	ID           int64              `json:"id"`
	Name         string             `json:"nom"`
	Address      string             `json:"adresse_postale"`
	Commune      string             `json:"commune"`
	Departement  string             `json:"departement"`
	Country      string             `json:"pays"`
	Coordinate   geo.Coordinate     `json:"coordinate"`
	Sector       string             `json:"secteur_activite"`
	Domain       string             `json:"domaine_activite"`
	Offers       string             `json:"offres"`
	OpeningHours map[string]string  `json:"horaires"`
	Description  string             `json:"descriptif"`
	Photo        string             `json:"photo,omitempty"`
	PMR          bool               `json:"pmr"`
	ContactEmail string             `json:"email_contact"`
	Phone        string             `json:"telephone"`
	Subscription SubscriptionStatus `json:"statut_abonnement"`
}

// NearbyMerchant is a merchant annotated with its distance from the caller.
type NearbyMerchant struct {
	Merchant
	DistanceKm float64 `json:"distanceKm"`
}

type QRCode struct {
	ID         int64        `json:"id"`
	MerchantID int64        `json:"idc"`
	Code       string       `json:"qrcode"`
	CreatedAt  time.Time    `json:"date_creation"`
	Status     QRCodeStatus `json:"statut"`
	Points     int          `json:"points"`
}

type Defi struct {
	ID           int64      `json:"id"`
	MerchantID   int64      `json:"idc"`
	Title        string     `json:"titre"`
	Description  string     `json:"description"`
	StartsAt     time.Time  `json:"date_debut"`
	EndsAt       time.Time  `json:"date_fin"`
	DurationDays int        `json:"duree"`
	Points       int        `json:"points_attribues"`
	Status       DefiStatus `json:"statut"`
}

// Open reports whether the défi is active and now falls within its window.
func (d Defi) Open(now time.Time) bool {
	return d.Status == DefiActive && !now.Before(d.StartsAt) && now.Before(d.EndsAt)
}

type CompletedDefi struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"idu"`
	DefiID      int64     `json:"idd"`
	CompletedAt time.Time `json:"date_realisation"`
	Points      int       `json:"points_gagnes"`
}

type QRScan struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"idu"`
	QRCodeID  int64     `json:"idq"`
	ScannedAt time.Time `json:"date_scan"`
	Points    int       `json:"points_gagnes"`
}

type Parcours struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"idu"`
	CreatedAt   time.Time      `json:"date_creation"`
	Status      ParcoursStatus `json:"statut"`
	MerchantIDs []int64        `json:"merchantIds"`
}

type Lot struct {
	ID             int64     `json:"id"`
	MerchantID     int64     `json:"idc"`
	Title          string    `json:"titre"`
	PointsRequired int       `json:"points_requis"`
	Conditions     string    `json:"conditions_attribution"`
	Quantity       int       `json:"quantite_disponible"`
	ExpiresAt      time.Time `json:"date_expiration"`
}

// Reward is returned by every endpoint that grants points.
type Reward struct {
	Points   int      `json:"points_gagnes"`
	Message  string   `json:"message"`
	Total    int      `json:"total"`
	Level    int      `json:"level"`
	Unlocked []string `json:"unlocked,omitempty"`
}
