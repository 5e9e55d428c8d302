package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"dsl-go/internal/config"
	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
	"dsl-go/internal/preset"
	"dsl-go/internal/stats"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// printer renders command results as text, JSON or YAML.
type printer struct {
	w      io.Writer
	format string
}

// newPrinter resolves the format from the --output flag, then the config.
// cfg may be nil.
func newPrinter(cmd *cobra.Command, cfg *config.Config) (*printer, error) {
	format, _ := cmd.Flags().GetString("output")
	if format == "" && cfg != nil {
		format = cfg.Output
	}
	if format == "" {
		format = "text"
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
	return &printer{w: os.Stdout, format: format}, nil
}

// print writes v as JSON or YAML, or calls text for the text format.
func (p *printer) print(v any, text func(w io.Writer)) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(p.w)
		return nil
	}
}

type itemView struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Unit  string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type blockView struct {
	ID    string     `json:"id" yaml:"id"`
	Game  string     `json:"game" yaml:"game"`
	Name  string     `json:"name" yaml:"name"`
	Items []itemView `json:"items" yaml:"items"`
}

type sessionView struct {
	Date     string      `json:"date" yaml:"date"`
	Location string      `json:"location,omitempty" yaml:"location,omitempty"`
	Memo     string      `json:"memo,omitempty" yaml:"memo,omitempty"`
	Tags     []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Blocks   []blockView `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

func blockName(t model.ActivityType) string {
	if p, ok := preset.Lookup(t); ok {
		return p.DisplayName
	}
	if t == "" {
		return "custom"
	}
	return string(t)
}

func newSessionView(s *model.Session, blocks []*model.StatBlock) sessionView {
	v := sessionView{
		Date:     s.Date.String(),
		Location: s.Location,
		Memo:     s.Memo,
		Tags:     s.Tags,
	}
	for _, b := range blocks {
		bv := blockView{ID: b.ID, Game: string(b.ActivityType), Name: blockName(b.ActivityType)}
		for _, it := range b.Items {
			bv.Items = append(bv.Items, itemView{
				Key:   it.Key,
				Label: it.Label,
				Type:  string(it.Value.Type()),
				Value: it.Value.String(),
				Unit:  it.Unit,
			})
		}
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

func (p *printer) session(s *model.Session, blocks []*model.StatBlock) error {
	v := newSessionView(s, blocks)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintln(w, sessionLine(v))
		if v.Memo != "" {
			fmt.Fprintf(w, "  memo: %s\n", v.Memo)
		}
		for _, b := range v.Blocks {
			fmt.Fprintf(w, "  %s\n", b.Name)
			for _, it := range b.Items {
				value := it.Value
				if value == "" {
					value = "-"
				} else if it.Unit != "" {
					value += " " + it.Unit
				}
				fmt.Fprintf(w, "    %-16s %s\n", it.Label, value)
			}
		}
	})
}

func sessionLine(v sessionView) string {
	line := v.Date
	if v.Location != "" {
		line += "  @" + v.Location
	}
	if len(v.Tags) > 0 {
		line += "  [" + strings.Join(v.Tags, ", ") + "]"
	}
	return line
}

func (p *printer) sessions(sessions []*model.Session) error {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s, nil))
	}
	return p.print(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "No sessions.")
			return
		}
		for _, v := range views {
			fmt.Fprintln(w, sessionLine(v))
		}
	})
}

type analysisView struct {
	Metric  string                  `json:"metric" yaml:"metric"`
	Period  string                  `json:"period" yaml:"period"`
	Count   int                     `json:"count" yaml:"count"`
	Summary *stats.FormattedSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Points  []dsl.Point             `json:"points,omitempty" yaml:"points,omitempty"`
}

func newAnalysisView(a *dsl.Analysis, withPoints bool) analysisView {
	v := analysisView{
		Metric: string(a.Metric),
		Period: a.Period.String(),
		Count:  a.Summary.Count,
	}
	if a.HasSummary {
		f := a.Summary.Format()
		v.Summary = &f
	}
	if withPoints {
		v.Points = a.Points
	}
	return v
}

func (p *printer) analysis(a *dsl.Analysis, withPoints bool) error {
	v := newAnalysisView(a, withPoints)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s)\n", v.Metric, v.Period)
		if v.Summary == nil {
			fmt.Fprintln(w, "  no data")
		} else {
			fmt.Fprintf(w, "  best %s  avg %s  latest %s  (%d samples)\n",
				v.Summary.Best, v.Summary.Avg, v.Summary.Latest, v.Count)
		}
		for _, pt := range v.Points {
			fmt.Fprintf(w, "  %s  %s\n", pt.Date, oneDecimal(pt.Value))
		}
	})
}

type dashboardView struct {
	Today           string              `json:"today" yaml:"today"`
	Rating01Avg     *float64            `json:"rating01_avg" yaml:"rating01_avg"`
	MPRAvg          *float64            `json:"mpr_avg" yaml:"mpr_avg"`
	CountUpAvg      *float64            `json:"countup_avg" yaml:"countup_avg"`
	ActiveDaysMonth int                 `json:"active_days_month" yaml:"active_days_month"`
	Streak          int                 `json:"streak" yaml:"streak"`
	ManualRating    *float64            `json:"manual_rating" yaml:"manual_rating"`
	Rank            string              `json:"rank" yaml:"rank"`
	GaugeFraction   float64             `json:"gauge_fraction" yaml:"gauge_fraction"`
	GaugeArcLength  float64             `json:"gauge_arc_length" yaml:"gauge_arc_length"`
	GaugeOffset     float64             `json:"gauge_offset" yaml:"gauge_offset"`
	RecentRatings   []model.RatingPoint `json:"recent_ratings" yaml:"recent_ratings"`
}

func newDashboardView(d *dsl.Dashboard) dashboardView {
	arc, offset := stats.GaugeArc(d.GaugeFraction)
	return dashboardView{
		Today:           d.Today.String(),
		Rating01Avg:     d.Rating01Avg,
		MPRAvg:          d.MPRAvg,
		CountUpAvg:      d.CountUpAvg,
		ActiveDaysMonth: d.ActiveDaysMonth,
		Streak:          d.Streak,
		ManualRating:    d.ManualRating,
		Rank:            d.Rank,
		GaugeFraction:   stats.Round(d.GaugeFraction, 4),
		GaugeArcLength:  stats.Round(arc, 2),
		GaugeOffset:     stats.Round(offset, 2),
		RecentRatings:   d.RecentRatingLog,
	}
}

// gaugeWidth is the number of cells in the text gauge bar.
const gaugeWidth = 20

func (p *printer) dashboard(d *dsl.Dashboard) error {
	v := newDashboardView(d)
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, "Today %s\n\n", v.Today)
		fmt.Fprintf(w, "  Rating (01)   %s\n", optionalDecimal(v.Rating01Avg))
		fmt.Fprintf(w, "  MPR           %s\n", optionalDecimal(v.MPRAvg))
		fmt.Fprintf(w, "  COUNT-UP      %s\n", optionalDecimal(v.CountUpAvg))
		fmt.Fprintf(w, "  Active days   %d this month\n", v.ActiveDaysMonth)
		fmt.Fprintf(w, "  Streak        %d\n", v.Streak)
		fmt.Fprintf(w, "  Rating        %s  %s  %s\n", optionalDecimal(v.ManualRating), v.Rank, gaugeBar(v.GaugeFraction))
	})
}

func gaugeBar(fraction float64) string {
	filled := int(fraction*gaugeWidth + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", gaugeWidth-filled) + "]"
}

func optionalDecimal(v *float64) string {
	if v == nil {
		return "--"
	}
	return oneDecimal(*v)
}

func oneDecimal(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

type fieldView struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`
	Unit  string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type presetView struct {
	Game    string      `json:"game" yaml:"game"`
	Name    string      `json:"name" yaml:"name"`
	Default bool        `json:"default" yaml:"default"`
	Fields  []fieldView `json:"fields" yaml:"fields"`
}

func (p *printer) presets(all []preset.Preset) error {
	defaults := map[model.ActivityType]bool{}
	for _, t := range preset.Defaults() {
		defaults[t] = true
	}

	views := make([]presetView, 0, len(all))
	for _, pr := range all {
		v := presetView{Game: string(pr.Type), Name: pr.DisplayName, Default: defaults[pr.Type]}
		for _, f := range pr.Fields {
			v.Fields = append(v.Fields, fieldView{Key: f.Key, Label: f.Label, Type: string(f.ValueType), Unit: f.Unit})
		}
		views = append(views, v)
	}

	return p.print(views, func(w io.Writer) {
		for _, v := range views {
			marker := " "
			if v.Default {
				marker = "*"
			}
			keys := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				keys[i] = f.Key
			}
			fmt.Fprintf(w, "%s %-8s %-10s %s\n", marker, v.Game, v.Name, strings.Join(keys, ", "))
		}
	})
}
