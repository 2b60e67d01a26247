package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/analytics"
)

var (
	insightsDays     int
	insightsRegion   string
	insightsJSON     bool
	insightsFresh    bool
	insightsLimit    int
	insightsSkill    string
	insightsGroupBy  string
	insightsInterval string
	insightsHorizon  int
	insightsTop      int
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Query skill and salary analytics from the warehouse",
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Most in-demand skills and how fast they are growing",
	RunE:  withEngine(runTrending),
}

var salariesCmd = &cobra.Command{
	Use:   "salaries",
	Short: "Salary ranges grouped by skill and/or location",
	RunE:  withEngine(runSalaries),
}

var growthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Job counts over time",
	RunE:  withEngine(runGrowth),
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast daily demand for a skill",
	RunE:  withEngine(runForecast),
}

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Skills that are asked for together",
	RunE:  withEngine(runCorrelate),
}

func init() {
	pf := insightsCmd.PersistentFlags()
	pf.IntVar(&insightsDays, "days", 30, "trailing window in days")
	pf.StringVar(&insightsRegion, "region", "", "restrict to a region (country, state, city or \"remote\")")
	pf.BoolVar(&insightsJSON, "json", false, "print raw JSON")
	pf.BoolVar(&insightsFresh, "fresh", false, "bypass the result cache where supported")

	trendingCmd.Flags().IntVar(&insightsLimit, "limit", 20, "number of skills to show (0 for all)")

	salariesCmd.Flags().StringVar(&insightsSkill, "skill", "", "only jobs requiring this skill")
	salariesCmd.Flags().StringVar(&insightsGroupBy, "group-by", analytics.GroupBySkill, "skill, location or skill_location")

	growthCmd.Flags().StringVar(&insightsSkill, "skill", "", "only jobs requiring this skill")
	growthCmd.Flags().StringVar(&insightsInterval, "interval", analytics.IntervalWeek, "day, week or month")

	forecastCmd.Flags().StringVar(&insightsSkill, "skill", "", "skill to forecast (required)")
	forecastCmd.Flags().IntVar(&insightsHorizon, "horizon", 14, "days to forecast")
	_ = forecastCmd.MarkFlagRequired("skill")

	correlateCmd.Flags().IntVar(&insightsTop, "top", 0, "most frequent skills to correlate (default from config)")
	correlateCmd.Flags().IntVar(&insightsLimit, "limit", 20, "number of pairs to show (0 for all)")

	insightsCmd.AddCommand(trendingCmd, salariesCmd, growthCmd, forecastCmd, correlateCmd)
	rootCmd.AddCommand(insightsCmd)
}

type engineFunc func(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, topN int) error

// withEngine opens the warehouse and analytics engine around fn.
func withEngine(fn engineFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug, logFormat)
		cfg := mustLoad(logger)
		if insightsDays <= 0 {
			return fmt.Errorf("--days must be positive, got %d", insightsDays)
		}

		ctx := context.Background()
		store, err := openWarehouse(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		engine, closeEngine, err := setupEngine(cfg, store, logger)
		if err != nil {
			return err
		}
		defer closeEngine()

		return fn(ctx, cmd, engine, cfg.Analytics.TopN)
	}
}

func window() time.Duration {
	return time.Duration(insightsDays) * 24 * time.Hour
}

func runTrending(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, _ int) error {
	rows, err := e.Trending(ctx, analytics.TrendingQuery{
		Window: window(),
		Region: insightsRegion,
		Limit:  insightsLimit,
		Fresh:  insightsFresh,
	})
	if err != nil {
		return err
	}
	if insightsJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		pterm.Info.Println("No jobs in the selected window.")
		return nil
	}
	pterm.DefaultSection.Printf("Trending skills, last %d days", insightsDays)
	return pterm.DefaultTable.WithHasHeader().WithData(trendingTable(rows)).Render()
}

func trendingTable(rows []analytics.SkillTrend) pterm.TableData {
	data := pterm.TableData{{"#", "Skill", "Jobs", "Growth"}}
	for i, r := range rows {
		data = append(data, []string{strconv.Itoa(i + 1), r.Skill, humanize.Comma(int64(r.JobCount)), fmtGrowth(r.GrowthRate)})
	}
	return data
}

func fmtGrowth(rate float64) string {
	s := fmt.Sprintf("%+.1f%%", rate*100)
	switch {
	case rate > 0:
		return pterm.Green(s)
	case rate < 0:
		return pterm.Red(s)
	default:
		return s
	}
}

func runSalaries(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, _ int) error {
	rows, err := e.SalaryInsights(ctx, analytics.SalaryQuery{
		Window:  window(),
		Region:  insightsRegion,
		Skill:   insightsSkill,
		GroupBy: insightsGroupBy,
	})
	if err != nil {
		return err
	}
	if insightsJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		pterm.Info.Println("No jobs with salary information in the selected window.")
		return nil
	}
	pterm.DefaultSection.Printf("Salaries by %s, last %d days", insightsGroupBy, insightsDays)
	return pterm.DefaultTable.WithHasHeader().WithData(salaryTable(rows)).Render()
}

func salaryTable(rows []analytics.SalaryInsight) pterm.TableData {
	data := pterm.TableData{{"Skill", "Location", "Jobs", "Min", "Avg", "Max", "Currency", "Period"}}
	for _, r := range rows {
		data = append(data, []string{
			dash(r.Skill),
			dash(r.Location),
			humanize.Comma(int64(r.JobCount)),
			humanize.Comma(int64(r.Min)),
			humanize.Comma(int64(r.Avg)),
			humanize.Comma(int64(r.Max)),
			dash(r.Currency),
			dash(r.Period),
		})
	}
	return data
}

func runGrowth(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, _ int) error {
	points, err := e.JobGrowth(ctx, analytics.GrowthQuery{
		Window:   window(),
		Interval: insightsInterval,
		Region:   insightsRegion,
		Skill:    insightsSkill,
	})
	if err != nil {
		return err
	}
	if insightsJSON {
		return writeJSON(cmd.OutOrStdout(), points)
	}
	if len(points) == 0 {
		pterm.Info.Println("No jobs in the selected window.")
		return nil
	}
	pterm.DefaultSection.Printf("Jobs per %s, last %d days", insightsInterval, insightsDays)
	return pterm.DefaultTable.WithHasHeader().WithData(growthTable(points)).Render()
}

func growthTable(points []analytics.Point) pterm.TableData {
	data := pterm.TableData{{"Period", "Jobs", "Change"}}
	for i, p := range points {
		change := "-"
		if i > 0 && points[i-1].Value > 0 {
			change = fmtGrowth((p.Value - points[i-1].Value) / points[i-1].Value)
		}
		data = append(data, []string{p.Date.Format("2006-01-02"), humanize.Comma(int64(p.Value)), change})
	}
	return data
}

func runForecast(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, _ int) error {
	f, err := e.Forecast(ctx, analytics.ForecastQuery{
		Skill:   insightsSkill,
		Region:  insightsRegion,
		Horizon: insightsHorizon,
		Window:  window(),
	})
	if err != nil {
		return err
	}
	if insightsJSON {
		return writeJSON(cmd.OutOrStdout(), f)
	}
	if f.Insufficient {
		pterm.Warning.Printfln("Not enough data to forecast %s: %s", f.Skill, f.Reason)
		return nil
	}
	pterm.DefaultSection.Printf("%s demand forecast (%s model), next %d days", f.Skill, f.Model, insightsHorizon)
	return pterm.DefaultTable.WithHasHeader().WithData(forecastTable(f)).Render()
}

func forecastTable(f analytics.Forecast) pterm.TableData {
	data := pterm.TableData{{"Date", "Expected", "Low", "High"}}
	for _, p := range f.Points {
		data = append(data, []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Yhat, 'f', 1, 64),
			strconv.FormatFloat(p.YhatLower, 'f', 1, 64),
			strconv.FormatFloat(p.YhatUpper, 'f', 1, 64),
		})
	}
	return data
}

func runCorrelate(ctx context.Context, cmd *cobra.Command, e *analytics.Engine, topN int) error {
	if insightsTop > 0 {
		topN = insightsTop
	}
	c, err := e.Correlate(ctx, analytics.CorrelationQuery{
		Window: window(),
		Region: insightsRegion,
		TopN:   topN,
	})
	if err != nil {
		return err
	}
	if insightsJSON {
		return writeJSON(cmd.OutOrStdout(), c)
	}
	if len(c.Pairs) == 0 {
		pterm.Info.Println("Not enough skills in the selected window to correlate.")
		return nil
	}
	pterm.DefaultSection.Printf("Skill co-occurrence, top %d skills, last %d days", len(c.Skills), insightsDays)
	return pterm.DefaultTable.WithHasHeader().WithData(correlationTable(c, insightsLimit)).Render()
}

// correlationTable lists the strongest pairs, at most limit of them.
func correlationTable(c analytics.Correlation, limit int) pterm.TableData {
	data := pterm.TableData{{"Skill", "Skill", "Together", "Strength"}}
	for i, p := range c.Pairs {
		if limit > 0 && i >= limit {
			break
		}
		data = append(data, []string{p.A, p.B, humanize.Comma(int64(p.CoOccurrences)), strconv.FormatFloat(p.Strength, 'f', 3, 64)})
	}
	return data
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
