package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/core"
)

var dictateSave bool

var dictateCmd = &cobra.Command{
	Use:   "dictate",
	Short: "Capture a spoken answer",
	Long: `Capture one answer through the configured speech provider and print
the transcript. With --save the transcript is saved as the answer to the
current question.

A transcript below speech.min_confidence is shown but never saved; record
again instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Dictation == nil {
			return fmt.Errorf("dictation not initialized")
		}

		t, err := Dictation.Capture(commandContext(cmd))
		if errors.Is(err, core.ErrLowConfidence) {
			fmt.Printf("Transcript (%s, confidence %.2f):\n  %s\n", t.Provider, t.Confidence, t.Text)
			return fmt.Errorf("transcript not used: %w", err)
		}
		if err != nil {
			return fmt.Errorf("capturing speech: %w", err)
		}

		fmt.Printf("Transcript (%s, confidence %.2f):\n  %s\n", t.Provider, t.Confidence, t.Text)
		if !dictateSave {
			return nil
		}

		if Flow == nil || Interview == nil {
			return fmt.Errorf("interview flow not initialized")
		}
		questionID, err := targetQuestion("")
		if err != nil {
			return err
		}
		sub := Flow.Submit(commandContext(cmd), questionID, t.Text, core.AnswerOpts{AudioRef: "speech:" + t.Provider})
		if err := reportResult("saving dictated answer", sub.Saved, "Answer saved for "+questionID+"."); err != nil {
			return err
		}
		if sub.Analysis != nil {
			fmt.Println()
			printAnalysis(sub.Analysis)
		}
		return nil
	},
}

func init() {
	dictateCmd.Flags().BoolVar(&dictateSave, "save", false, "Save the transcript as the answer to the current question")
	rootCmd.AddCommand(dictateCmd)
}
