package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

// timeLayout is fixed width in UTC so stored timestamps compare as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// VisitCooldown is the minimum delay between two rewarded visits of the
// same target by the same user.
const VisitCooldown = 24 * time.Hour

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type SQLiteStore struct {
	db    *sql.DB
	rules gamification.Rules
}

func NewSQLiteStore(db *sql.DB, rules gamification.Rules) *SQLiteStore {
	return &SQLiteStore{db: db, rules: rules}
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// --- users ---

const userColumns = `id, email, nom, prenom, pseudo, sexe, age, date_naissance, adresse, commune,
	departement, pays, numero_telephone, situation_familiale, avec_enfants, age_enfants,
	preferences_activites, points_disponibles, home_latitude, home_longitude,
	questionnaire_complete, date_inscription, derniere_connexion`

func scanUser(row rowScanner, extra ...any) (comhodl.User, error) {
	var (
		u                 comhodl.User
		age               sql.NullInt64
		birth, lastLogin  sql.NullString
		prefs, registered string
		homeLat, homeLng  sql.NullFloat64
	)
	dest := []any{
		&u.ID, &u.Email, &u.LastName, &u.FirstName, &u.Nickname, &u.Sex, &age, &birth,
		&u.Address, &u.Commune, &u.Departement, &u.Country, &u.Phone, &u.FamilySituation,
		&u.WithChildren, &u.ChildrenAges, &prefs, &u.Points, &homeLat, &homeLng,
		&u.QuestionnaireDone, &registered, &lastLogin,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, ErrNotFound
		}
		return u, err
	}

	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	if birth.Valid {
		u.BirthDate = &birth.String
	}
	if lastLogin.Valid {
		t := parseTime(lastLogin.String)
		u.LastLogin = &t
	}
	if homeLat.Valid && homeLng.Valid {
		u.Home = &geo.Coordinate{Latitude: homeLat.Float64, Longitude: homeLng.Float64}
	}
	u.RegisteredAt = parseTime(registered)
	u.Preferences = []comhodl.Activity{}
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return u, fmt.Errorf("decoding preferences of user %d: %w", u.ID, err)
	}
	return u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u comhodl.User, passwordHash string) (comhodl.User, error) {
	if u.Preferences == nil {
		u.Preferences = []comhodl.Activity{}
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return comhodl.User{}, err
	}
	if u.Sex == "" {
		u.Sex = comhodl.SexOther
	}

	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, u.Email,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, nom, prenom, pseudo, sexe, age, date_naissance,
				adresse, commune, departement, pays, numero_telephone, situation_familiale,
				avec_enfants, age_enfants, preferences_activites, date_inscription)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, u.Email, passwordHash, u.LastName, u.FirstName, u.Nickname, string(u.Sex), u.Age, u.BirthDate,
			u.Address, u.Commune, u.Departement, u.Country, u.Phone, string(u.FamilySituation),
			boolInt(u.WithChildren), u.ChildrenAges, string(prefs), fmtTime(time.Now()),
		).Scan(&id)
	})
	if err != nil {
		return comhodl.User{}, err
	}
	return s.User(ctx, id)
}

func (s *SQLiteStore) Credentials(ctx context.Context, email string) (comhodl.User, string, error) {
	var hash string
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, email), &hash)
	return u, hash, err
}

func (s *SQLiteStore) TouchLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET derniere_connexion = ? WHERE id = ?`, fmtTime(at), userID)
	return err
}

func (s *SQLiteStore) User(ctx context.Context, userID int64) (comhodl.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID int64, upd comhodl.ProfileUpdate) (comhodl.User, error) {
	var homeLat, homeLng *float64
	if upd.Home != nil {
		homeLat, homeLng = &upd.Home.Latitude, &upd.Home.Longitude
	}
	var sex, family *string
	if upd.Sex != nil {
		v := string(*upd.Sex)
		sex = &v
	}
	if upd.FamilySituation != nil {
		v := string(*upd.FamilySituation)
		family = &v
	}
	var withChildren *int
	if upd.WithChildren != nil {
		v := boolInt(*upd.WithChildren)
		withChildren = &v
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			nom = COALESCE(?, nom),
			prenom = COALESCE(?, prenom),
			pseudo = COALESCE(?, pseudo),
			sexe = COALESCE(?, sexe),
			age = COALESCE(?, age),
			date_naissance = COALESCE(?, date_naissance),
			adresse = COALESCE(?, adresse),
			commune = COALESCE(?, commune),
			departement = COALESCE(?, departement),
			pays = COALESCE(?, pays),
			numero_telephone = COALESCE(?, numero_telephone),
			situation_familiale = COALESCE(?, situation_familiale),
			avec_enfants = COALESCE(?, avec_enfants),
			age_enfants = COALESCE(?, age_enfants),
			home_latitude = COALESCE(?, home_latitude),
			home_longitude = COALESCE(?, home_longitude)
		WHERE id = ?
	`, upd.LastName, upd.FirstName, upd.Nickname, sex, upd.Age, upd.BirthDate,
		upd.Address, upd.Commune, upd.Departement, upd.Country, upd.Phone,
		family, withChildren, upd.ChildrenAges, homeLat, homeLng, userID)
	if err != nil {
		return comhodl.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return comhodl.User{}, ErrNotFound
	}
	return s.User(ctx, userID)
}

func (s *SQLiteStore) SetPreferences(ctx context.Context, userID int64, prefs []comhodl.Activity) (comhodl.User, error) {
	if prefs == nil {
		prefs = []comhodl.Activity{}
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return comhodl.User{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET preferences_activites = ? WHERE id = ?`, string(data), userID)
	if err != nil {
		return comhodl.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return comhodl.User{}, ErrNotFound
	}
	return s.User(ctx, userID)
}

func (s *SQLiteStore) CompleteQuestionnaire(ctx context.Context, userID int64) (comhodl.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET questionnaire_complete = 1 WHERE id = ?`, userID)
	if err != nil {
		return comhodl.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return comhodl.User{}, ErrNotFound
	}
	return s.User(ctx, userID)
}

func (s *SQLiteStore) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, pseudo, points_disponibles FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Standing{}
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.UserID, &st.Nickname, &st.Points); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// --- merchants ---

const merchantColumns = `id, nom, adresse_postale, commune, departement, pays, latitude, longitude,
	secteur_activite, domaine_activite, offres, horaires, descriptif, photo, pmr,
	email_contact, telephone, statut_abonnement`

func scanMerchant(row rowScanner) (comhodl.Merchant, error) {
	var (
		m     comhodl.Merchant
		hours string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Address, &m.Commune, &m.Departement, &m.Country,
		&m.Coordinate.Latitude, &m.Coordinate.Longitude, &m.Sector, &m.Domain, &m.Offers,
		&hours, &m.Description, &m.Photo, &m.PMR, &m.ContactEmail, &m.Phone, &m.Subscription)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.OpeningHours = map[string]string{}
	if err := json.Unmarshal([]byte(hours), &m.OpeningHours); err != nil {
		return m, fmt.Errorf("decoding hours of merchant %d: %w", m.ID, err)
	}
	return m, nil
}

func (s *SQLiteStore) queryMerchants(ctx context.Context, where string, args ...any) ([]comhodl.Merchant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+merchantColumns+` FROM merchants `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.Merchant{}
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Merchants(ctx context.Context) ([]comhodl.Merchant, error) {
	return s.queryMerchants(ctx, "")
}

func (s *SQLiteStore) Merchant(ctx context.Context, id int64) (comhodl.Merchant, error) {
	return scanMerchant(s.db.QueryRowContext(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id = ?`, id))
}

func (s *SQLiteStore) SearchMerchants(ctx context.Context, query string) ([]comhodl.Merchant, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryMerchants(ctx, `
		WHERE lower(nom) LIKE ? ESCAPE '\'
		   OR lower(descriptif) LIKE ? ESCAPE '\'
		   OR lower(secteur_activite) LIKE ? ESCAPE '\'
		   OR lower(domaine_activite) LIKE ? ESCAPE '\'
		   OR lower(commune) LIKE ? ESCAPE '\'`, like, like, like, like, like)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *SQLiteStore) MerchantsByActivity(ctx context.Context, activity string) ([]comhodl.Merchant, error) {
	return s.queryMerchants(ctx, `WHERE lower(secteur_activite) = lower(?)`, activity)
}

func (s *SQLiteStore) merchantExists(ctx context.Context, q queryer, id int64) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM merchants WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

const qrColumns = `id, merchant_id, qrcode, date_creation, statut, points`

func scanQRCode(row rowScanner) (comhodl.QRCode, error) {
	var (
		q       comhodl.QRCode
		created string
	)
	err := row.Scan(&q.ID, &q.MerchantID, &q.Code, &created, &q.Status, &q.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	q.CreatedAt = parseTime(created)
	return q, err
}

func (s *SQLiteStore) MerchantQRCodes(ctx context.Context, merchantID int64) ([]comhodl.QRCode, error) {
	if err := s.merchantExists(ctx, s.db, merchantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE merchant_id = ? ORDER BY id`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.QRCode{}
	for rows.Next() {
		q, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

const defiColumns = `id, merchant_id, titre, description, date_debut, date_fin, duree, points_attribues, statut`

func scanDefi(row rowScanner) (comhodl.Defi, error) {
	var (
		d          comhodl.Defi
		start, end string
	)
	err := row.Scan(&d.ID, &d.MerchantID, &d.Title, &d.Description, &start, &end,
		&d.DurationDays, &d.Points, &d.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	d.StartsAt, d.EndsAt = parseTime(start), parseTime(end)
	return d, err
}

func (s *SQLiteStore) queryDefis(ctx context.Context, where string, args ...any) ([]comhodl.Defi, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+defiColumns+` FROM defis `+where+` ORDER BY date_fin, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.Defi{}
	for rows.Next() {
		d, err := scanDefi(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MerchantDefis(ctx context.Context, merchantID int64) ([]comhodl.Defi, error) {
	if err := s.merchantExists(ctx, s.db, merchantID); err != nil {
		return nil, err
	}
	return s.queryDefis(ctx, `WHERE merchant_id = ?`, merchantID)
}

func (s *SQLiteStore) MerchantLots(ctx context.Context, merchantID int64) ([]comhodl.Lot, error) {
	if err := s.merchantExists(ctx, s.db, merchantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, merchant_id, titre, points_requis, conditions_attribution, quantite_disponible, date_expiration
		FROM lots WHERE merchant_id = ? ORDER BY points_requis, id
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.Lot{}
	for rows.Next() {
		var (
			l       comhodl.Lot
			expires string
		)
		if err := rows.Scan(&l.ID, &l.MerchantID, &l.Title, &l.PointsRequired, &l.Conditions, &l.Quantity, &expires); err != nil {
			return nil, err
		}
		l.ExpiresAt = parseTime(expires)
		out = append(out, l)
	}
	return out, rows.Err()
}

// --- rewards ---

// award grants the points for e and advances achievements, inside tx.
func (s *SQLiteStore) award(ctx context.Context, tx *sql.Tx, userID int64, e gamification.Event) (Outcome, error) {
	var (
		points           int
		nickname         string
		homeLat, homeLng sql.NullFloat64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT points_disponibles, pseudo, home_latitude, home_longitude FROM users WHERE id = ?
	`, userID).Scan(&points, &nickname, &homeLat, &homeLng)
	if errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, ErrNotFound
	}
	if err != nil {
		return Outcome{}, err
	}
	if homeLat.Valid && homeLng.Valid {
		e.Home = &geo.Coordinate{Latitude: homeLat.Float64, Longitude: homeLng.Float64}
	}

	if e.Kind == gamification.EventVisit || e.Kind == gamification.EventScan {
		if err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM visits WHERE user_id = ? AND target = ?),
				(SELECT COUNT(DISTINCT target) FROM visits WHERE user_id = ?)
		`, userID, e.Target, userID).Scan(&e.Visits, &e.Distinct); err != nil {
			return Outcome{}, err
		}
	}

	delta := gamification.PointsFor(e)
	state, err := gamification.AwardPoints(gamification.GameState{Points: points}, delta)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET points_disponibles = ? WHERE id = ?`, state.Points, userID); err != nil {
		return Outcome{}, err
	}

	current, err := s.achievements(ctx, tx, userID)
	if err != nil {
		return Outcome{}, err
	}
	next, unlocked := s.rules.Apply(e, current)
	for i, a := range next {
		if a == current[i] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_achievements (user_id, achievement_id, progress, unlocked)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, achievement_id) DO UPDATE SET progress = excluded.progress, unlocked = excluded.unlocked
		`, userID, a.ID, a.Progress, boolInt(a.Unlocked)); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{Points: delta, State: state, Unlocked: unlocked, Nickname: nickname}, nil
}

func insertVisit(ctx context.Context, tx *sql.Tx, userID int64, target string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO visits (user_id, target, visited_at) VALUES (?, ?, ?)`, userID, target, fmtTime(at))
	return err
}

func (s *SQLiteStore) RecordVisit(ctx context.Context, userID int64, v Visit) (Outcome, error) {
	var out Outcome
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var recent bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM visits WHERE user_id = ? AND target = ? AND visited_at > ?)
		`, userID, v.Target, fmtTime(v.At.Add(-VisitCooldown))).Scan(&recent); err != nil {
			return err
		}
		if recent {
			return ErrConflict
		}
		if err := insertVisit(ctx, tx, userID, v.Target, v.At); err != nil {
			return err
		}

		var err error
		out, err = s.award(ctx, tx, userID, gamification.Event{
			Kind:   gamification.EventVisit,
			Target: v.Target,
			At:     v.At,
			Where:  v.Where,
			Points: v.Points,
		})
		return err
	})
	return out, err
}

func (s *SQLiteStore) RecordScan(ctx context.Context, userID int64, code string, at time.Time) (comhodl.QRCode, Outcome, error) {
	var (
		qr  comhodl.QRCode
		out Outcome
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		qr, err = scanQRCode(tx.QueryRowContext(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE qrcode = ?`, code))
		if err != nil {
			return err
		}
		if qr.Status != comhodl.QRCodeActive {
			return ErrInactive
		}

		var scanned bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM qr_scans WHERE user_id = ? AND qr_code_id = ?)`, userID, qr.ID,
		).Scan(&scanned); err != nil {
			return err
		}
		if scanned {
			return ErrConflict
		}

		var where geo.Coordinate
		if err := tx.QueryRowContext(ctx,
			`SELECT latitude, longitude FROM merchants WHERE id = ?`, qr.MerchantID,
		).Scan(&where.Latitude, &where.Longitude); err != nil {
			return err
		}

		target := "merchant:" + strconv.FormatInt(qr.MerchantID, 10)
		if err := insertVisit(ctx, tx, userID, target, at); err != nil {
			return err
		}
		out, err = s.award(ctx, tx, userID, gamification.Event{
			Kind:   gamification.EventScan,
			Target: target,
			At:     at,
			Where:  where,
			Points: qr.Points,
		})
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO qr_scans (user_id, qr_code_id, date_scan, points_gagnes) VALUES (?, ?, ?, ?)
		`, userID, qr.ID, fmtTime(at), out.Points)
		return err
	})
	return qr, out, err
}

// --- défis ---

func (s *SQLiteStore) ActiveDefis(ctx context.Context, now time.Time) ([]comhodl.Defi, error) {
	ts := fmtTime(now)
	return s.queryDefis(ctx, `WHERE statut = ? AND date_debut <= ? AND date_fin > ?`, string(comhodl.DefiActive), ts, ts)
}

func (s *SQLiteStore) Defi(ctx context.Context, id int64) (comhodl.Defi, error) {
	return scanDefi(s.db.QueryRowContext(ctx, `SELECT `+defiColumns+` FROM defis WHERE id = ?`, id))
}

func (s *SQLiteStore) CompleteDefi(ctx context.Context, userID, defiID int64, at time.Time) (comhodl.Defi, Outcome, error) {
	var (
		d   comhodl.Defi
		out Outcome
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		d, err = scanDefi(tx.QueryRowContext(ctx, `SELECT `+defiColumns+` FROM defis WHERE id = ?`, defiID))
		if err != nil {
			return err
		}
		if !d.Open(at) {
			return ErrInactive
		}

		var done bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM defis_realises WHERE user_id = ? AND defi_id = ?)`, userID, defiID,
		).Scan(&done); err != nil {
			return err
		}
		if done {
			return ErrConflict
		}

		out, err = s.award(ctx, tx, userID, gamification.Event{
			Kind:   gamification.EventDefi,
			Target: "defi:" + strconv.FormatInt(defiID, 10),
			At:     at,
			Points: d.Points,
		})
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO defis_realises (user_id, defi_id, date_realisation, points_gagnes) VALUES (?, ?, ?, ?)
		`, userID, defiID, fmtTime(at), out.Points)
		return err
	})
	return d, out, err
}

// --- parcours ---

func (s *SQLiteStore) StartParcours(ctx context.Context, userID int64, merchantIDs []int64, at time.Time) (comhodl.Parcours, error) {
	p := comhodl.Parcours{
		UserID:      userID,
		CreatedAt:   at.UTC().Truncate(time.Millisecond),
		Status:      comhodl.ParcoursInProgress,
		MerchantIDs: merchantIDs,
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range merchantIDs {
			if err := s.merchantExists(ctx, tx, id); err != nil {
				return fmt.Errorf("merchant %d: %w", id, err)
			}
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO parcours (user_id, date_creation, statut) VALUES (?, ?, ?) RETURNING id
		`, userID, fmtTime(at), string(p.Status)).Scan(&p.ID); err != nil {
			return err
		}
		for i, id := range merchantIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO parcours_merchants (parcours_id, merchant_id, position) VALUES (?, ?, ?)
			`, p.ID, id, i); err != nil {
				return err
			}
		}
		return nil
	})
	return p, err
}

func (s *SQLiteStore) CompleteParcours(ctx context.Context, userID, parcoursID int64, at time.Time) (comhodl.Parcours, Outcome, error) {
	var (
		p   comhodl.Parcours
		out Outcome
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		list, err := s.queryParcours(ctx, tx, `WHERE p.id = ?`, parcoursID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return ErrNotFound
		}
		p = list[0]
		if p.UserID != userID {
			return ErrForbidden
		}
		if p.Status != comhodl.ParcoursInProgress {
			return ErrConflict
		}

		out, err = s.award(ctx, tx, userID, gamification.Event{
			Kind:   gamification.EventParcours,
			Target: "parcours:" + strconv.FormatInt(parcoursID, 10),
			At:     at,
			Stops:  len(p.MerchantIDs),
		})
		if err != nil {
			return err
		}

		p.Status = comhodl.ParcoursFinished
		_, err = tx.ExecContext(ctx, `UPDATE parcours SET statut = ? WHERE id = ?`, string(p.Status), parcoursID)
		return err
	})
	return p, out, err
}

func (s *SQLiteStore) queryParcours(ctx context.Context, q queryer, where string, args ...any) ([]comhodl.Parcours, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.date_creation, p.statut, COALESCE(group_concat(pm.merchant_id), '')
		FROM parcours p
		LEFT JOIN (SELECT * FROM parcours_merchants ORDER BY parcours_id, position) pm ON pm.parcours_id = p.id
		`+where+`
		GROUP BY p.id
		ORDER BY p.id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.Parcours{}
	for rows.Next() {
		var (
			p              comhodl.Parcours
			created, stops string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &created, &p.Status, &stops); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(created)
		p.MerchantIDs = []int64{}
		for _, f := range strings.Split(stops, ",") {
			if f == "" {
				continue
			}
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parcours %d: bad merchant id %q", p.ID, f)
			}
			p.MerchantIDs = append(p.MerchantIDs, id)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ActiveParcours(ctx context.Context, userID int64) ([]comhodl.Parcours, error) {
	return s.queryParcours(ctx, s.db, `WHERE p.user_id = ? AND p.statut = ?`, userID, string(comhodl.ParcoursInProgress))
}

func (s *SQLiteStore) UserParcours(ctx context.Context, userID int64) ([]comhodl.Parcours, error) {
	return s.queryParcours(ctx, s.db, `WHERE p.user_id = ?`, userID)
}

// --- history ---

func (s *SQLiteStore) UserDefis(ctx context.Context, userID int64) ([]comhodl.CompletedDefi, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, defi_id, date_realisation, points_gagnes
		FROM defis_realises WHERE user_id = ? ORDER BY date_realisation DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.CompletedDefi{}
	for rows.Next() {
		var (
			d  comhodl.CompletedDefi
			at string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.DefiID, &at, &d.Points); err != nil {
			return nil, err
		}
		d.CompletedAt = parseTime(at)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UserScans(ctx context.Context, userID int64) ([]comhodl.QRScan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, qr_code_id, date_scan, points_gagnes
		FROM qr_scans WHERE user_id = ? ORDER BY date_scan DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []comhodl.QRScan{}
	for rows.Next() {
		var (
			sc comhodl.QRScan
			at string
		)
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.QRCodeID, &at, &sc.Points); err != nil {
			return nil, err
		}
		sc.ScannedAt = parseTime(at)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Achievements(ctx context.Context, userID int64) ([]gamification.Achievement, error) {
	return s.achievements(ctx, s.db, userID)
}

// achievements overlays the user's stored progress on the static definitions.
func (s *SQLiteStore) achievements(ctx context.Context, q queryer, userID int64) ([]gamification.Achievement, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT achievement_id, progress, unlocked FROM user_achievements WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type progress struct {
		value    int
		unlocked bool
	}
	stored := map[string]progress{}
	for rows.Next() {
		var (
			id string
			p  progress
		)
		if err := rows.Scan(&id, &p.value, &p.unlocked); err != nil {
			return nil, err
		}
		stored[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	list := gamification.DefaultAchievements()
	for i, a := range list {
		if p, ok := stored[a.ID]; ok {
			list[i].Progress = min(p.value, a.MaxProgress)
			list[i].Unlocked = p.unlocked
		}
	}
	return list, nil
}
