// Package report renders simulation results as aligned console tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cory-johannsen/simfell/internal/sim"
)

// Writer renders batch results. Numbers are grouped for the configured locale.
type Writer struct {
	p *message.Printer
}

// New returns a Writer formatting numbers for tag.
func New(tag language.Tag) *Writer {
	return &Writer{p: message.NewPrinter(tag)}
}

// Header describes the run being reported.
type Header struct {
	Archetype string
	Talents   []string
	Duration  float64
	Enemies   int
	RunID     string // empty when results were not stored
}

// AbilityLine is one ability's contribution across a batch.
type AbilityLine struct {
	ID       string
	Casts    float64 // per run
	CritRate float64 // percent of hits
	DPS      float64
	Share    float64 // percent of total damage
}

// Abilities merges per-run breakdowns into per-ability averages, highest DPS first.
func Abilities(runs []sim.Result) []AbilityLine {
	if len(runs) == 0 {
		return nil
	}
	type acc struct {
		casts, hits, crits int
		damage             float64
	}
	totals := make(map[string]*acc)
	var all, seconds float64
	for _, r := range runs {
		seconds += r.Duration
		for _, a := range r.Abilities {
			t, ok := totals[a.ID]
			if !ok {
				t = &acc{}
				totals[a.ID] = t
			}
			t.casts += a.Casts
			t.hits += a.Hits
			t.crits += a.Crits
			t.damage += a.Damage
			all += a.Damage
		}
	}
	n := float64(len(runs))
	out := make([]AbilityLine, 0, len(totals))
	for id, t := range totals {
		line := AbilityLine{ID: id, Casts: float64(t.casts) / n}
		if t.hits > 0 {
			line.CritRate = 100 * float64(t.crits) / float64(t.hits)
		}
		if seconds > 0 {
			line.DPS = t.damage / seconds
		}
		if all > 0 {
			line.Share = 100 * t.damage / all
		}
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DPS != out[j].DPS {
			return out[i].DPS > out[j].DPS
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Write renders the header, DPS summary, ability breakdown, and resource
// usage of b to w.
func (wr *Writer) Write(w io.Writer, h Header, b *sim.BatchResult) error {
	if err := wr.writeSummary(w, h, b.Summary); err != nil {
		return err
	}
	if err := wr.writeAbilities(w, Abilities(b.Runs)); err != nil {
		return err
	}
	return wr.writeResources(w, b.Runs)
}

func (wr *Writer) writeSummary(w io.Writer, h Header, s sim.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	wr.p.Fprintf(tw, "Archetype\t%s\n", h.Archetype)
	if len(h.Talents) > 0 {
		wr.p.Fprintf(tw, "Talents\t%v\n", h.Talents)
	}
	wr.p.Fprintf(tw, "Encounter\t%.0fs, %d target(s)\n", h.Duration, h.Enemies)
	wr.p.Fprintf(tw, "Iterations\t%d\n", s.Iterations)
	wr.p.Fprintf(tw, "DPS\t%.1f\n", s.Mean)
	if s.Iterations > 1 {
		wr.p.Fprintf(tw, "Range\t%.1f - %.1f\n", s.Min, s.Max)
		wr.p.Fprintf(tw, "Std dev\t%.1f\n", s.StdDev)
	}
	if h.RunID != "" {
		wr.p.Fprintf(tw, "Run ID\t%s\n", h.RunID)
	}
	return tw.Flush()
}

func (wr *Writer) writeAbilities(w io.Writer, lines []AbilityLine) error {
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Ability\tCasts\tCrit %\tDPS\tShare %\t\n")
	for _, l := range lines {
		wr.p.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t\n", l.ID, l.Casts, l.CritRate, l.DPS, l.Share)
	}
	return tw.Flush()
}

func (wr *Writer) writeResources(w io.Writer, runs []sim.Result) error {
	if len(runs) == 0 || len(runs[0].Resources) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	n := float64(len(runs))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Resource\tGained\tSpent\tWasted\t\n")
	for i, first := range runs[0].Resources {
		var gained, spent, wasted int
		for _, r := range runs {
			if i < len(r.Resources) {
				gained += r.Resources[i].Gained
				spent += r.Resources[i].Spent
				wasted += r.Resources[i].Wasted
			}
		}
		wr.p.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t\n", first.Name,
			float64(gained)/n, float64(spent)/n, float64(wasted)/n)
	}
	return tw.Flush()
}
