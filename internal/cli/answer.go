package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/pkg/models"
)

var (
	answerQuestion string
	answerStdin    bool
	answerAudio    string
	answerAttach   []string

	analyzeQuestion string
)

var answerCmd = &cobra.Command{
	Use:   "answer [text]",
	Short: "Answer the current question",
	Long: `Save an answer and show the analysis of it: completeness score,
suggestions and follow-up questions.

The answer goes to the current question unless --question names another
one. Use --stdin to read a longer answer from standard input. Saving again
replaces the previous answer; an empty answer is not saved.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Flow == nil || Interview == nil {
			return fmt.Errorf("interview flow not initialized")
		}

		content, err := answerText(cmd, args, answerStdin)
		if err != nil {
			return err
		}
		questionID, err := targetQuestion(answerQuestion)
		if err != nil {
			return err
		}

		sub := Flow.Submit(commandContext(cmd), questionID, content, core.AnswerOpts{
			AudioRef:    answerAudio,
			Attachments: answerAttach,
		})
		if err := reportResult("saving answer", sub.Saved, "Answer saved for "+questionID+"."); err != nil {
			return err
		}
		if sub.AnalysisErr != nil {
			fmt.Println(noticeWarningStyle.Render(fmt.Sprintf("Answer kept, but analysis failed: %v", sub.AnalysisErr)))
			return nil
		}
		if sub.Analysis != nil {
			fmt.Println()
			printAnalysis(sub.Analysis)
		}
		if Interview.CanAdvanceQuestion() && Interview.StageIsComplete() {
			fmt.Println()
			fmt.Println(dimStyle.Render("All required questions in this stage are answered. Run 'yishu advance' to move on."))
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze an answer without saving it",
	Long: `Run the answer analysis on some text without saving it. Useful for
trying out an answer before committing to it.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Flow == nil || Interview == nil {
			return fmt.Errorf("interview flow not initialized")
		}

		content, err := answerText(cmd, args, false)
		if err != nil {
			return err
		}
		questionID, err := targetQuestion(analyzeQuestion)
		if err != nil {
			return err
		}

		analysis, err := Flow.Analyze(commandContext(cmd), questionID, content)
		if err != nil {
			return fmt.Errorf("analyzing answer: %w", err)
		}
		printAnalysis(analysis)
		return nil
	},
}

// commandContext returns the command's context, or Background when the
// command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func answerText(cmd *cobra.Command, args []string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading answer from stdin: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("answer text is required (pass it as arguments or use --stdin)")
	}
	return strings.Join(args, " "), nil
}

// targetQuestion resolves an explicit question id, or the current question
// when id is empty.
func targetQuestion(id string) (string, error) {
	if id != "" {
		if _, ok := Interview.Catalog().Question(id); !ok {
			return "", fmt.Errorf("unknown question %q", id)
		}
		return id, nil
	}
	q, ok := Interview.CurrentQuestion()
	if !ok {
		return "", fmt.Errorf("no current question, run 'yishu start' first or pass --question")
	}
	return q.ID, nil
}

func printAnalysis(a *models.AnswerAnalysis) {
	c := a.Completeness
	verdict := noticeWarningStyle.Render("could say more")
	if c.IsComplete {
		verdict = successStyle.Render("complete")
	}
	fmt.Printf("Completeness: %d/100 (%s)\n", c.Score, verdict)
	if a.Emotion != models.EmotionNone {
		fmt.Printf("Tone:         %s\n", a.Emotion)
	}

	ki := a.KeyInfo
	printList("Time references", ki.TimeReferences)
	printList("People", ki.People)
	printList("Places", ki.Places)
	printList("Feelings", ki.Emotions)

	if len(c.Suggestions) > 0 {
		fmt.Println("\nTo make it richer:")
		for _, s := range c.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	if len(a.FollowUps) > 0 {
		fmt.Println("\nYou might also talk about:")
		for _, f := range a.FollowUps {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%-13s %s\n", label+":", strings.Join(items, ", "))
}

func init() {
	answerCmd.Flags().StringVarP(&answerQuestion, "question", "q", "", "Question id to answer (default: current question)")
	answerCmd.Flags().BoolVar(&answerStdin, "stdin", false, "Read the answer from standard input")
	answerCmd.Flags().StringVar(&answerAudio, "audio", "", "Reference to a recording of the answer")
	answerCmd.Flags().StringSliceVar(&answerAttach, "attach", nil, "Attachment references (repeatable)")

	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "Question id to analyze against (default: current question)")

	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(analyzeCmd)
}
