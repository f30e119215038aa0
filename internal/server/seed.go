package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/geo"
)

var demoMerchants = []comhodl.Merchant{
	{
		ID: 1, Name: "Boulangerie du Coin", Address: "123 rue de la Paix", Commune: "Paris", Departement: "75", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 48.856614, Longitude: 2.3522219}, Sector: "Resto", Domain: "Boulangerie",
		Offers: "Pains, viennoiseries", OpeningHours: map[string]string{"lundi-samedi": "7h-20h"},
		Description: "Boulangerie artisanale du quartier.", PMR: true, ContactEmail: "contact@boulangerie-du-coin.fr",
		Phone: "0140000001", Subscription: comhodl.SubscriptionPaid,
	},
	{
		ID: 2, Name: "Café des Arts", Address: "45 avenue des Champs-Élysées", Commune: "Paris", Departement: "75", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 48.8738, Longitude: 2.2950}, Sector: "Resto", Domain: "Café",
		Offers: "Cafés, brunchs", OpeningHours: map[string]string{"tous les jours": "8h-23h"},
		Description: "Café-galerie exposant des artistes locaux.", ContactEmail: "bonjour@cafedesarts.fr",
		Phone: "0140000002", Subscription: comhodl.SubscriptionFree,
	},
	{
		ID: 3, Name: "Restaurant Le Petit Bistrot", Address: "78 rue du Louvre", Commune: "Paris", Departement: "75", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 48.8606, Longitude: 2.3376}, Sector: "Resto", Domain: "Bistrot",
		Offers: "Menu du jour", OpeningHours: map[string]string{"mardi-samedi": "12h-14h30, 19h-22h30"},
		Description: "Cuisine de bistrot traditionnelle.", PMR: true, ContactEmail: "resa@petitbistrot.fr",
		Phone: "0140000003", Subscription: comhodl.SubscriptionPaid,
	},
	{
		ID: 4, Name: "Boutique Mode", Address: "12 rue de Rivoli", Commune: "Paris", Departement: "75", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 48.8584, Longitude: 2.3376}, Sector: "Shopping", Domain: "Prêt-à-porter",
		Offers: "Collections de créateurs", OpeningHours: map[string]string{"lundi-samedi": "10h-19h"},
		Description: "Créateurs parisiens et pièces uniques.", ContactEmail: "hello@boutiquemode.fr",
		Phone: "0140000004", Subscription: comhodl.SubscriptionFree,
	},
	{
		ID: 5, Name: "Librairie de la Comédie", Address: "4 place de la Comédie", Commune: "Montpellier", Departement: "34", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 43.6085, Longitude: 3.8800}, Sector: "Culture", Domain: "Librairie",
		Offers: "Livres, rencontres d'auteurs", OpeningHours: map[string]string{"lundi-samedi": "9h30-19h30"},
		Description: "Grande librairie indépendante du centre.", PMR: true, ContactEmail: "contact@librairie-comedie.fr",
		Phone: "0467000005", Subscription: comhodl.SubscriptionPaid,
	},
	{
		ID: 6, Name: "Halles Castellane", Address: "Rue de la Loge", Commune: "Montpellier", Departement: "34", Country: "France",
		Coordinate: geo.Coordinate{Latitude: 43.6107, Longitude: 3.8758}, Sector: "Resto", Domain: "Marché couvert",
		Offers: "Produits frais, dégustations", OpeningHours: map[string]string{"lundi-samedi": "7h-20h", "dimanche": "7h-13h30"},
		Description: "Marché couvert historique de l'Écusson.", PMR: true, ContactEmail: "halles@montpellier.fr",
		Phone: "0467000006", Subscription: comhodl.SubscriptionFree,
	},
}

type demoQRCode struct {
	merchantID int64
	code       string
	status     comhodl.QRCodeStatus
	points     int
}

var demoQRCodes = []demoQRCode{
	{1, "COMHODL-BOULANGERIE-01", comhodl.QRCodeActive, 50},
	{2, "COMHODL-CAFE-ARTS-01", comhodl.QRCodeActive, 50},
	{3, "COMHODL-PETIT-BISTROT-01", comhodl.QRCodeActive, 75},
	{4, "COMHODL-MODE-01", comhodl.QRCodeActive, 50},
	{4, "COMHODL-MODE-2023", comhodl.QRCodeInactive, 50},
	{5, "COMHODL-LIBRAIRIE-01", comhodl.QRCodeActive, 60},
	{6, "COMHODL-HALLES-01", comhodl.QRCodeActive, 40},
}

// SeedDemo fills an empty catalogue with demo merchants, QR codes, défis
// and lots. It does nothing when merchants already exist.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB, now time.Time) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM merchants`).Scan(&count); err != nil {
		return fmt.Errorf("counting merchants: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range demoMerchants {
		hours, _ := json.Marshal(m.OpeningHours)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO merchants (id, nom, adresse_postale, commune, departement, pays, latitude, longitude,
				secteur_activite, domaine_activite, offres, horaires, descriptif, photo, pmr,
				email_contact, telephone, statut_abonnement)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.Name, m.Address, m.Commune, m.Departement, m.Country, m.Coordinate.Latitude, m.Coordinate.Longitude,
			m.Sector, m.Domain, m.Offers, string(hours), m.Description, m.Photo, boolInt(m.PMR),
			m.ContactEmail, m.Phone, string(m.Subscription)); err != nil {
			return fmt.Errorf("seeding merchant %d: %w", m.ID, err)
		}
	}

	for _, q := range demoQRCodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO qr_codes (merchant_id, qrcode, date_creation, statut, points) VALUES (?, ?, ?, ?, ?)
		`, q.merchantID, q.code, fmtTime(now), string(q.status), q.points); err != nil {
			return fmt.Errorf("seeding qr code %s: %w", q.code, err)
		}
	}

	day := 24 * time.Hour
	defis := []comhodl.Defi{
		{MerchantID: 5, Title: "Lecture d'été", Description: "Achetez un roman d'un auteur local.",
			StartsAt: now.Add(-day), EndsAt: now.Add(30 * day), DurationDays: 31, Points: 100, Status: comhodl.DefiActive},
		{MerchantID: 6, Title: "Tour des Halles", Description: "Goûtez trois produits de producteurs différents.",
			StartsAt: now.Add(-day), EndsAt: now.Add(7 * day), DurationDays: 8, Points: 80, Status: comhodl.DefiActive},
		{MerchantID: 1, Title: "Galette des rois", Description: "Trouvez la fève.",
			StartsAt: now.Add(-30 * day), EndsAt: now.Add(-day), DurationDays: 29, Points: 200, Status: comhodl.DefiFinished},
	}
	for _, d := range defis {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO defis (merchant_id, titre, description, date_debut, date_fin, duree, points_attribues, statut)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, d.MerchantID, d.Title, d.Description, fmtTime(d.StartsAt), fmtTime(d.EndsAt),
			d.DurationDays, d.Points, string(d.Status)); err != nil {
			return fmt.Errorf("seeding défi %q: %w", d.Title, err)
		}
	}

	lots := []comhodl.Lot{
		{MerchantID: 1, Title: "Croissant offert", PointsRequired: 100, Conditions: "Un par personne et par jour", Quantity: 50, ExpiresAt: now.Add(90 * day)},
		{MerchantID: 5, Title: "Marque-page collector", PointsRequired: 150, Conditions: "Dans la limite des stocks", Quantity: 20, ExpiresAt: now.Add(60 * day)},
		{MerchantID: 6, Title: "Assiette de dégustation", PointsRequired: 300, Conditions: "Sur place uniquement", Quantity: 10, ExpiresAt: now.Add(30 * day)},
	}
	for _, l := range lots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lots (merchant_id, titre, points_requis, conditions_attribution, quantite_disponible, date_expiration)
			VALUES (?, ?, ?, ?, ?, ?)
		`, l.MerchantID, l.Title, l.PointsRequired, l.Conditions, l.Quantity, fmtTime(l.ExpiresAt)); err != nil {
			return fmt.Errorf("seeding lot %q: %w", l.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Info("demo catalogue seeded", "merchants", len(demoMerchants), "qr_codes", len(demoQRCodes))
	return nil
}
