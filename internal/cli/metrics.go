package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display interview and biography metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include sessions started and completed, answers saved and analyzed,
average answer completeness, biographies generated and exports by format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Sessions started:", metrics.SessionsStarted)
		fmt.Printf("  %-24s %d\n", "Interviews completed:", metrics.InterviewsCompleted)
		fmt.Printf("  %-24s %d\n", "Answers saved:", metrics.AnswersSaved)
		fmt.Printf("  %-24s %d\n", "Answers analyzed:", metrics.AnswersAnalyzed)
		fmt.Printf("  %-24s %.1f\n", "Avg completeness:", metrics.AvgCompleteness)
		fmt.Printf("  %-24s %d\n", "Stages advanced:", metrics.StagesAdvanced)
		fmt.Printf("  %-24s %d\n", "Speech captures:", metrics.SpeechCaptures)
		fmt.Printf("  %-24s %d\n", "Biographies generated:", metrics.BiographiesGenerated)
		fmt.Printf("  %-24s %d\n", "Export failures:", metrics.ExportFailures)
		fmt.Printf("  %-24s %d\n", "Persistence failures:", metrics.PersistenceFailures)

		printCounts("Biographies by style:", metrics.BiographiesByStyle)
		printCounts("Exports by format:", metrics.ExportsByFormat)

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

func printCounts(heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n  %s\n", heading)
	for _, k := range keys {
		fmt.Printf("    %-20s %d\n", k+":", counts[k])
	}
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
