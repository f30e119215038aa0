package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/apiclient"
	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/geo"
	"github.com/bdsalocin/comhodl-api/internal/location"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
	"github.com/bdsalocin/comhodl-api/internal/session"
)

// visitRadiusKm matches the distance at which the server accepts a visit.
const visitRadiusKm = 0.3

type command func(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error

var commands = map[string]command{
	"login":         cmdLogin,
	"register":      cmdRegister,
	"logout":        cmdLogout,
	"status":        cmdStatus,
	"questionnaire": cmdQuestionnaire,
	"places":        cmdPlaces,
	"nearby":        cmdNearby,
	"visit":         cmdVisit,
	"scan":          cmdScan,
	"defis":         cmdDefis,
	"achievements":  cmdAchievements,
	"leaderboard":   cmdLeaderboard,
	"watch":         cmdWatch,
}

// errQuestionnairePending is returned by commands that need onboarding done.
var errQuestionnairePending = errors.New("questionnaire not completed")

func (a *app) requireSession() error {
	if a.gate.State() == session.Unauthenticated {
		return fmt.Errorf("%w: run hodos login first", session.ErrNotSignedIn)
	}
	return nil
}

// requireReady admits only a signed-in user who finished the questionnaire.
func (a *app) requireReady() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if a.gate.State() != session.Ready {
		return fmt.Errorf("%w: run hodos questionnaire first", errQuestionnairePending)
	}
	return nil
}

func credentials(fs *flag.FlagSet, args []string) (string, string, error) {
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if *email == "" || *password == "" {
		return "", "", fmt.Errorf("%w: -email and -password are required", errUsage)
	}
	return *email, *password, nil
}

func authOutcome(a *app, res session.AuthResult) error {
	if !res.Success {
		return errors.New(res.Error.Message)
	}
	a.line("Connecté en tant que %s", res.User.Email)
	if a.gate.State() == session.Authenticated {
		a.line("%s", a.out.muted.Render("questionnaire à compléter: hodos questionnaire"))
	}
	return nil
}

func (a *app) line(format string, args ...any) { a.out.line(format, args...) }

func cmdLogin(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	email, password, err := credentials(fs, args)
	if err != nil {
		return err
	}
	return authOutcome(a, a.gate.SignIn(ctx, email, password))
}

func cmdRegister(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	email, password, err := credentials(fs, args)
	if err != nil {
		return err
	}
	return authOutcome(a, a.gate.SignUp(ctx, email, password))
}

func cmdLogout(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.gate.State() == session.Unauthenticated {
		a.line("Aucune session active")
		return nil
	}
	// The local session is cleared even when the server cannot be reached.
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Warn("server logout failed", "error", err)
	}
	if err := a.gate.SignOut(ctx); err != nil {
		return err
	}
	a.line("Déconnecté")
	return nil
}

func cmdStatus(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	a.out.me(me)
	return nil
}

func parseActivities(s string) ([]comhodl.Activity, error) {
	if s == "" {
		return nil, nil
	}
	var out []comhodl.Activity
	for _, part := range strings.Split(s, ",") {
		act := comhodl.Activity(strings.TrimSpace(part))
		if !act.Valid() {
			return nil, fmt.Errorf("%w: unknown activity %q", errUsage, act)
		}
		out = append(out, act)
	}
	return out, nil
}

func cmdQuestionnaire(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	prefs := fs.String("prefs", "", "comma separated activities (Resto, Shopping, Culture)")
	family := fs.String("family", "", "family situation (Célibataire, Couple, Famille)")
	children := fs.Bool("children", false, "household has children")
	ages := fs.String("ages", "", "children ages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	acts, err := parseActivities(*prefs)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	q := apiclient.Questionnaire{Preferences: acts, WithChildren: children}
	if *family != "" {
		f := comhodl.FamilySituation(*family)
		if !f.Valid() {
			return fmt.Errorf("%w: unknown family situation %q", errUsage, *family)
		}
		q.FamilySituation = &f
	}
	if *ages != "" {
		q.ChildrenAges = ages
	}

	if _, err := a.client.CompleteQuestionnaire(ctx, q); err != nil {
		return err
	}
	if err := a.gate.CompleteQuestionnaire(ctx); err != nil {
		return err
	}
	a.line("Questionnaire enregistré")
	return nil
}

// positionFlags registers -lat and -lng and returns a resolver that yields
// nil when neither was given.
func positionFlags(fs *flag.FlagSet) func() (*geo.Coordinate, error) {
	lat := fs.String("lat", "", "latitude")
	lng := fs.String("lng", "", "longitude")
	return func() (*geo.Coordinate, error) {
		if *lat == "" && *lng == "" {
			return nil, nil
		}
		c, err := parseCoordinate(*lat + "," + *lng)
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
}

func parseCoordinate(s string) (geo.Coordinate, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%w: position %q is not lat,lng", errUsage, s)
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	c := geo.Coordinate{Latitude: lat, Longitude: lng}
	if err1 != nil || err2 != nil || !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("%w: invalid position %q", errUsage, s)
	}
	return c, nil
}

func cmdPlaces(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	position := positionFlags(fs)
	sorted := fs.Bool("sort", false, "nearest first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	from, err := position()
	if err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	places, err := a.client.Places(ctx, from)
	if err != nil {
		return err
	}
	if *sorted {
		proximity.SortByDistance(places)
	}
	a.out.places(places)
	return nil
}

func cmdNearby(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	position := positionFlags(fs)
	radius := fs.Float64("radius", 5, "search radius in km")
	if err := fs.Parse(args); err != nil {
		return err
	}
	from, err := position()
	if err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	if from == nil {
		c := location.DefaultCoordinate
		from = &c
	}
	ms, err := a.client.NearbyMerchants(ctx, *from, *radius)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		a.line("Aucun commerçant à moins de %.1f km", *radius)
		return nil
	}
	a.out.merchants(ms)
	return nil
}

func cmdVisit(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	position := positionFlags(fs)
	place := fs.Int("place", 0, "place id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *place <= 0 {
		return fmt.Errorf("%w: -place is required", errUsage)
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	from, err := position()
	if err != nil {
		return err
	}
	rw, err := a.client.VisitPlace(ctx, *place, from)
	if err != nil {
		return err
	}
	a.out.reward(rw)
	return nil
}

func cmdScan(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	code := fs.String("code", "", "QR code content")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return fmt.Errorf("%w: -code is required", errUsage)
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	rw, err := a.client.ScanQRCode(ctx, *code)
	if err != nil {
		return err
	}
	a.out.reward(rw)
	return nil
}

func cmdDefis(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	complete := fs.Int64("complete", 0, "complete the défi with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	if *complete > 0 {
		rw, err := a.client.CompleteDefi(ctx, *complete)
		if err != nil {
			return err
		}
		a.out.reward(rw)
		return nil
	}
	ds, err := a.client.ActiveDefis(ctx)
	if err != nil {
		return err
	}
	a.out.defis(ds)
	return nil
}

func cmdAchievements(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	ach, err := a.client.Achievements(ctx)
	if err != nil {
		return err
	}
	a.out.achievements(ach)
	return nil
}

func cmdLeaderboard(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	n := fs.Int("n", 10, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	entries, err := a.client.Leaderboard(ctx, *n)
	if err != nil {
		return err
	}
	a.out.leaderboard(entries)
	return nil
}

// parsePath reads "lat,lng;lat,lng" and drops consecutive duplicates, which
// a watch would never deliver twice.
func parsePath(s string) ([]geo.Coordinate, error) {
	var out []geo.Coordinate
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := parseCoordinate(part)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 && out[len(out)-1] == c {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: -path is empty", errUsage)
	}
	return out, nil
}

// cmdWatch replays a path as a location feed and reports the places within
// visiting distance at each step.
func cmdWatch(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	path := fs.String("path", "", `positions as "lat,lng;lat,lng"`)
	every := fs.Duration("every", time.Second, "delay between positions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positions, err := parsePath(*path)
	if err != nil {
		return err
	}
	if err := a.requireReady(); err != nil {
		return err
	}

	src := location.NewScripted(true, positions...)
	src.Interval = *every
	sub, err := src.Watch(ctx, location.Options{TimeInterval: *every})
	if err != nil {
		return err
	}
	defer sub.Stop()

	for seen := 0; seen < len(positions); {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Errors():
			a.logger.Warn("location update failed", "error", err)
		case c, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			seen++
			if err := a.reportNearby(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) reportNearby(ctx context.Context, c geo.Coordinate) error {
	places, err := a.client.Places(ctx, &c)
	if err != nil {
		return err
	}
	a.line("%s", a.out.title.Render(fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)))
	var near int
	for _, p := range places {
		if p.DistanceKm != nil && *p.DistanceKm <= visitRadiusKm {
			near++
			a.line("  %s %s à %s (+%d points: hodos visit -place %d)", p.Icon, p.Name, distance(p.DistanceKm), p.Points, p.ID)
		}
	}
	if near == 0 {
		a.line("  %s", a.out.muted.Render("aucun lieu à proximité"))
	}
	return nil
}
