package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/geo"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
)

// Session is the result of a successful login or registration.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      comhodl.User `json:"user"`
}

// Registration is the sign-up form.
type Registration struct {
	Email           string                  `json:"email"`
	Password        string                  `json:"mot_de_passe"`
	LastName        string                  `json:"nom,omitempty"`
	FirstName       string                  `json:"prenom,omitempty"`
	Nickname        string                  `json:"pseudo,omitempty"`
	Sex             comhodl.Sex             `json:"sexe,omitempty"`
	Age             *int                    `json:"age,omitempty"`
	Commune         string                  `json:"commune,omitempty"`
	FamilySituation comhodl.FamilySituation `json:"situation_familiale,omitempty"`
	WithChildren    bool                    `json:"avec_enfants,omitempty"`
	Preferences     []comhodl.Activity      `json:"preferences_activites,omitempty"`
}

// Questionnaire carries the onboarding answers.
type Questionnaire struct {
	Preferences     []comhodl.Activity       `json:"preferences_activites,omitempty"`
	FamilySituation *comhodl.FamilySituation `json:"situation_familiale,omitempty"`
	WithChildren    *bool                    `json:"avec_enfants,omitempty"`
	ChildrenAges    *string                  `json:"age_enfants,omitempty"`
}

// Me is the signed-in user with the level derived from their points.
type Me struct {
	comhodl.User
	Level         int     `json:"level"`
	NextLevel     int     `json:"nextLevel"`
	LevelProgress float64 `json:"levelProgress"`
}

type Achievements struct {
	Achievements []gamification.Achievement `json:"achievements"`
	Summary      gamification.Summary       `json:"summary"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"mot_de_passe"`
}

// Login exchanges credentials for a session and keeps its token for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, loginBody{email, password}, &s); err != nil {
		return Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

func (c *Client) Register(ctx context.Context, r Registration) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, r, &s); err != nil {
		return Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

// Logout revokes the token server-side and forgets it locally, even when the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (Me, error) {
	var me Me
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &me)
	return me, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd comhodl.ProfileUpdate) (Me, error) {
	var me Me
	err := c.do(ctx, http.MethodPost, "/api/users/profile", nil, upd, &me)
	return me, err
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs []comhodl.Activity) (Me, error) {
	body := struct {
		Preferences []comhodl.Activity `json:"preferences_activites"`
	}{prefs}
	var me Me
	err := c.do(ctx, http.MethodPost, "/api/users/preferences", nil, body, &me)
	return me, err
}

func (c *Client) CompleteQuestionnaire(ctx context.Context, q Questionnaire) (Me, error) {
	var me Me
	err := c.do(ctx, http.MethodPost, "/api/users/questionnaire", nil, q, &me)
	return me, err
}

func (c *Client) UserDefis(ctx context.Context) ([]comhodl.CompletedDefi, error) {
	var out []comhodl.CompletedDefi
	err := c.do(ctx, http.MethodGet, "/api/users/defis", nil, nil, &out)
	return out, err
}

func (c *Client) UserScans(ctx context.Context) ([]comhodl.QRScan, error) {
	var out []comhodl.QRScan
	err := c.do(ctx, http.MethodGet, "/api/users/qr-scans", nil, nil, &out)
	return out, err
}

func coordinateQuery(c geo.Coordinate) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(c.Latitude, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(c.Longitude, 'f', -1, 64)},
	}
}

// Places returns the catalog in catalog order, annotated with distances when
// from is non-nil.
func (c *Client) Places(ctx context.Context, from *geo.Coordinate) ([]proximity.Annotated, error) {
	var q url.Values
	if from != nil {
		q = coordinateQuery(*from)
	}
	var out []proximity.Annotated
	err := c.do(ctx, http.MethodGet, "/api/places", q, nil, &out)
	return out, err
}

// VisitPlace claims the place's points. from, when non-nil, is checked
// against the place position by the server.
func (c *Client) VisitPlace(ctx context.Context, placeID int, from *geo.Coordinate) (comhodl.Reward, error) {
	var body any
	if from != nil {
		body = struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}{from.Latitude, from.Longitude}
	}
	var r comhodl.Reward
	err := c.do(ctx, http.MethodPost, "/api/places/"+strconv.Itoa(placeID)+"/visit", nil, body, &r)
	return r, err
}

func (c *Client) Merchants(ctx context.Context) ([]comhodl.Merchant, error) {
	var out []comhodl.Merchant
	err := c.do(ctx, http.MethodGet, "/api/merchants", nil, nil, &out)
	return out, err
}

func merchantPath(id int64, suffix string) string {
	return "/api/merchants/" + strconv.FormatInt(id, 10) + suffix
}

func (c *Client) Merchant(ctx context.Context, id int64) (comhodl.Merchant, error) {
	var m comhodl.Merchant
	err := c.do(ctx, http.MethodGet, merchantPath(id, ""), nil, nil, &m)
	return m, err
}

func (c *Client) SearchMerchants(ctx context.Context, query string) ([]comhodl.Merchant, error) {
	var out []comhodl.Merchant
	err := c.do(ctx, http.MethodGet, "/api/merchants/search", url.Values{"q": {query}}, nil, &out)
	return out, err
}

func (c *Client) MerchantsByActivity(ctx context.Context, a comhodl.Activity) ([]comhodl.Merchant, error) {
	var out []comhodl.Merchant
	err := c.do(ctx, http.MethodGet, "/api/merchants/activity/"+url.PathEscape(string(a)), nil, nil, &out)
	return out, err
}

// NearbyMerchants lists merchants within radiusKm of from, nearest first. A
// zero radius uses the server default.
func (c *Client) NearbyMerchants(ctx context.Context, from geo.Coordinate, radiusKm float64) ([]comhodl.NearbyMerchant, error) {
	q := coordinateQuery(from)
	if radiusKm > 0 {
		q.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	var out []comhodl.NearbyMerchant
	err := c.do(ctx, http.MethodGet, "/api/merchants/nearby", q, nil, &out)
	return out, err
}

func (c *Client) MerchantQRCodes(ctx context.Context, id int64) ([]comhodl.QRCode, error) {
	var out []comhodl.QRCode
	err := c.do(ctx, http.MethodGet, merchantPath(id, "/qr-codes"), nil, nil, &out)
	return out, err
}

func (c *Client) MerchantDefis(ctx context.Context, id int64) ([]comhodl.Defi, error) {
	var out []comhodl.Defi
	err := c.do(ctx, http.MethodGet, merchantPath(id, "/defis"), nil, nil, &out)
	return out, err
}

func (c *Client) MerchantLots(ctx context.Context, id int64) ([]comhodl.Lot, error) {
	var out []comhodl.Lot
	err := c.do(ctx, http.MethodGet, merchantPath(id, "/lots"), nil, nil, &out)
	return out, err
}

func (c *Client) ScanQRCode(ctx context.Context, code string) (comhodl.Reward, error) {
	body := struct {
		Code string `json:"qrcode"`
	}{code}
	var r comhodl.Reward
	err := c.do(ctx, http.MethodPost, "/api/challenges/scan", nil, body, &r)
	return r, err
}

func (c *Client) ActiveDefis(ctx context.Context) ([]comhodl.Defi, error) {
	var out []comhodl.Defi
	err := c.do(ctx, http.MethodGet, "/api/challenges/defis/active", nil, nil, &out)
	return out, err
}

func (c *Client) Defi(ctx context.Context, id int64) (comhodl.Defi, error) {
	var d comhodl.Defi
	err := c.do(ctx, http.MethodGet, "/api/challenges/defis/"+strconv.FormatInt(id, 10), nil, nil, &d)
	return d, err
}

func (c *Client) CompleteDefi(ctx context.Context, id int64) (comhodl.Reward, error) {
	var r comhodl.Reward
	err := c.do(ctx, http.MethodPost, "/api/challenges/defis/"+strconv.FormatInt(id, 10)+"/complete", nil, nil, &r)
	return r, err
}

func (c *Client) StartParcours(ctx context.Context, merchantIDs []int64) (comhodl.Parcours, error) {
	body := struct {
		MerchantIDs []int64 `json:"merchantIds"`
	}{merchantIDs}
	var p comhodl.Parcours
	err := c.do(ctx, http.MethodPost, "/api/challenges/parcours/start", nil, body, &p)
	return p, err
}

func (c *Client) CompleteParcours(ctx context.Context, id int64) (comhodl.Reward, error) {
	var r comhodl.Reward
	err := c.do(ctx, http.MethodPost, "/api/challenges/parcours/"+strconv.FormatInt(id, 10)+"/complete", nil, nil, &r)
	return r, err
}

func (c *Client) ActiveParcours(ctx context.Context) ([]comhodl.Parcours, error) {
	var out []comhodl.Parcours
	err := c.do(ctx, http.MethodGet, "/api/challenges/parcours/active", nil, nil, &out)
	return out, err
}

func (c *Client) Achievements(ctx context.Context) (Achievements, error) {
	var a Achievements
	err := c.do(ctx, http.MethodGet, "/api/achievements", nil, nil, &a)
	return a, err
}

// Leaderboard returns the top n users. n <= 0 uses the server default.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	var q url.Values
	if n > 0 {
		q = url.Values{"limit": {strconv.Itoa(n)}}
	}
	var out []leaderboard.Entry
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", q, nil, &out)
	return out, err
}
