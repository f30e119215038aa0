package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bdsalocin/comhodl-api/internal/apiclient"
	"github.com/bdsalocin/comhodl-api/internal/comhodl"
	"github.com/bdsalocin/comhodl-api/internal/gamification"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
	"github.com/bdsalocin/comhodl-api/internal/proximity"
)

// printer renders command output. Colors are dropped when w is not a
// terminal.
type printer struct {
	w      io.Writer
	title  lipgloss.Style
	points lipgloss.Style
	muted  lipgloss.Style
	border lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E7D32")),
		points: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9A825")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
		border: r.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(p.w, t.String())
}

func (p *printer) reward(rw comhodl.Reward) {
	p.line("%s %s", p.points.Render("+"+strconv.Itoa(rw.Points)), rw.Message)
	p.line("%s", p.muted.Render(fmt.Sprintf("total %d points, niveau %d", rw.Total, rw.Level)))
	for _, id := range rw.Unlocked {
		p.line("%s %s", p.title.Render("Succès débloqué :"), id)
	}
}

func (p *printer) me(m apiclient.Me) {
	name := m.Nickname
	if name == "" {
		name = m.Email
	}
	p.line("%s", p.title.Render(name))
	p.line("points   %s", p.points.Render(strconv.Itoa(m.Points)))
	p.line("niveau   %d (%d%% vers le niveau %d)", m.Level, int(m.LevelProgress*100), m.NextLevel)
	if !m.QuestionnaireDone {
		p.line("%s", p.muted.Render("questionnaire à compléter: hodos questionnaire"))
	}
}

func distance(km *float64) string {
	if km == nil {
		return "-"
	}
	return strconv.FormatFloat(*km, 'f', 1, 64) + " km"
}

func (p *printer) places(places []proximity.Annotated) {
	rows := make([][]string, 0, len(places))
	for _, pl := range places {
		open := "fermé"
		if pl.Open {
			open = "ouvert"
		}
		rows = append(rows, []string{
			strconv.Itoa(pl.ID), pl.Icon + " " + pl.Name, pl.Category,
			distance(pl.DistanceKm), open, strconv.Itoa(pl.Points),
		})
	}
	p.table([]string{"#", "Lieu", "Type", "Distance", "", "Points"}, rows)
}

func (p *printer) merchants(ms []comhodl.NearbyMerchant) {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		d := m.DistanceKm
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10), m.Name, m.Domain, m.Commune, distance(&d),
		})
	}
	p.table([]string{"#", "Commerçant", "Activité", "Commune", "Distance"}, rows)
}

func (p *printer) defis(ds []comhodl.Defi) {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			strconv.FormatInt(d.ID, 10), d.Title, d.EndsAt.Format("2006-01-02"), strconv.Itoa(d.Points),
		})
	}
	p.table([]string{"#", "Défi", "Jusqu'au", "Points"}, rows)
}

func (p *printer) achievements(a apiclient.Achievements) {
	rows := make([][]string, 0, len(a.Achievements))
	for _, ach := range a.Achievements {
		state := p.muted.Render(fmt.Sprintf("%d/%d", ach.Progress, ach.MaxProgress))
		if ach.Unlocked {
			state = p.title.Render("débloqué")
		}
		rows = append(rows, []string{ach.Icon + " " + ach.Title, ach.Description, state})
	}
	p.table([]string{"Succès", "", ""}, rows)
	p.line("%s", summaryLine(a.Summary))
}

func summaryLine(s gamification.Summary) string {
	return fmt.Sprintf("%d/%d débloqués (%d%%)", s.Unlocked, s.Total, s.Percent)
}

func (p *printer) leaderboard(entries []leaderboard.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{strconv.Itoa(e.Rank), e.Nickname, strconv.Itoa(e.Points)})
	}
	p.table([]string{"Rang", "Pseudo", "Points"}, rows)
}
