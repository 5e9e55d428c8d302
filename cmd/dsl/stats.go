package main

import (
	"fmt"
	"io"
	"strconv"

	"dsl-go/internal/app"
	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
	"dsl-go/internal/stats"

	"github.com/spf13/cobra"
)

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Analyze practice results",
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary METRIC",
	Short: "Best, average and latest of a metric (rating01, mpr, countup, dartslive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, false)
	},
}

var statsSeriesCmd = &cobra.Command{
	Use:   "series METRIC",
	Short: "Every dated sample of a metric, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, true)
	},
}

func runAnalysis(cmd *cobra.Command, args []string, withPoints bool) error {
	period, _ := cmd.Flags().GetString("period")
	return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
		analysis, err := a.Analyze(args[0], period)
		if err != nil {
			return err
		}
		return out.analysis(analysis, withPoints)
	})
}

var statsStreakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Consecutive practice days ending today",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			streak, err := a.Service().Streak()
			if err != nil {
				return err
			}
			return out.print(map[string]int{"streak": streak}, func(w io.Writer) {
				fmt.Fprintf(w, "%d day(s)\n", streak)
			})
		})
	},
}

var statsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "30-day averages, streak and rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			d, err := a.Service().Dashboard()
			if err != nil {
				return err
			}
			return out.dashboard(d)
		})
	},
}

type estimateView struct {
	Rating01 *float64 `json:"rating01,omitempty" yaml:"rating01,omitempty"`
	Cricket  *float64 `json:"cricket,omitempty" yaml:"cricket,omitempty"`
	Overall  *float64 `json:"overall,omitempty" yaml:"overall,omitempty"`
	Rank     string   `json:"rank" yaml:"rank"`
}

var statsEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a rating from points per dart and marks per round",
	RunE: func(cmd *cobra.Command, args []string) error {
		ppd, _ := cmd.Flags().GetFloat64("ppd")
		mpr, _ := cmd.Flags().GetFloat64("mpr")

		var v estimateView
		if r, ok := stats.Rating01(ppd); ok {
			v.Rating01 = &r
		}
		if r, ok := stats.CricketRating(mpr); ok {
			v.Cricket = &r
		}
		if v.Rating01 == nil && v.Cricket == nil {
			return fmt.Errorf("%w: pass --ppd and/or --mpr", dsl.ErrInvalidInput)
		}
		overall, _ := stats.OverallRating(v.Rating01, v.Cricket)
		v.Overall = &overall
		v.Rank = stats.RatingToRank(overall)

		out, err := newPrinter(cmd, nil)
		if err != nil {
			return err
		}
		return out.print(v, func(w io.Writer) {
			fmt.Fprintf(w, "01 %s  CRICKET %s  overall %s  rank %s\n",
				optionalDecimal(v.Rating01), optionalDecimal(v.Cricket), optionalDecimal(v.Overall), v.Rank)
		})
	},
}

// rating command
var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Manage the manually entered DARTSLIVE rating",
}

var ratingSetCmd = &cobra.Command{
	Use:   "set RATING",
	Short: "Set the current rating (0-18) and record it for today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("%w: rating %q is not a number", dsl.ErrInvalidInput, args[0])
		}
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			if err := a.SetRating(rating); err != nil {
				return err
			}
			fmt.Fprintf(out.w, "Rating %s (%s)\n", oneDecimal(rating), stats.RatingToRank(rating))
			return nil
		})
	},
}

var ratingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current rating and rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			rating, ok, err := a.Service().Ratings().ManualRating()
			if err != nil {
				return err
			}
			v := estimateView{Rank: stats.NoRank}
			if ok {
				v.Overall = &rating
				v.Rank = stats.RatingToRank(rating)
			}
			return out.print(v, func(w io.Writer) {
				if !ok {
					fmt.Fprintln(w, "No rating set.")
					return
				}
				fmt.Fprintf(w, "%s  %s  %s\n", oneDecimal(rating), v.Rank,
					gaugeBar(stats.GaugeFraction(rating, stats.MaxRating)))
			})
		})
	},
}

var ratingHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			var points []model.RatingPoint
			var err error
			if days > 0 {
				points, err = a.Service().Ratings().HistorySince(a.Service().Today().AddDays(-days))
			} else {
				points, err = a.Service().Ratings().History()
			}
			if err != nil {
				return err
			}
			return out.print(points, func(w io.Writer) {
				if len(points) == 0 {
					fmt.Fprintln(w, "No ratings recorded.")
					return
				}
				for _, pt := range points {
					fmt.Fprintf(w, "%s  %s\n", pt.Date, oneDecimal(pt.Value))
				}
			})
		})
	},
}

var ratingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the current rating (history is kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			if err := a.ClearRating(); err != nil {
				return err
			}
			fmt.Fprintln(out.w, "Rating cleared.")
			return nil
		})
	},
}

func initStatsCmds() {
	for _, c := range []*cobra.Command{statsSummaryCmd, statsSeriesCmd} {
		c.Flags().StringP("period", "p", "30", "Number of days, or 'all'")
	}
	statsEstimateCmd.Flags().Float64("ppd", 0, "Points per dart (01 games)")
	statsEstimateCmd.Flags().Float64("mpr", 0, "Marks per round (cricket)")

	statsCmd.AddCommand(statsSummaryCmd)
	statsCmd.AddCommand(statsSeriesCmd)
	statsCmd.AddCommand(statsStreakCmd)
	statsCmd.AddCommand(statsDashboardCmd)
	statsCmd.AddCommand(statsEstimateCmd)

	ratingHistoryCmd.Flags().Int("days", 0, "Only the last N days (default all)")

	ratingCmd.AddCommand(ratingSetCmd)
	ratingCmd.AddCommand(ratingShowCmd)
	ratingCmd.AddCommand(ratingHistoryCmd)
	ratingCmd.AddCommand(ratingClearCmd)

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(ratingCmd)
}
