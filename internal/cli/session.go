package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/pkg/models"
)

var startUser string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new interview session",
	Long: `Start a new interview at the first question of the first stage.

Any existing session, finished or not, is replaced. Use --user to record
who is being interviewed; it defaults to subject.user_id from the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}

		user := startUser
		if user == "" {
			user = UserID
		}
		if user == "" {
			user = "local"
		}

		s := Interview.Start(user)
		fmt.Println(successStyle.Render(fmt.Sprintf("Started interview %s for %s", s.ID, user)))
		fmt.Println()
		printCurrentQuestion()
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show interview progress",
	Long: `Show the state of the current interview: where it stands, how many
questions have been answered and the progress of each stage.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}

		state := Interview.State()
		if state == core.StateNoSession {
			fmt.Println("No interview session. Run 'yishu start' to begin.")
			return nil
		}

		s := Interview.Session()
		p := Interview.Progress()
		fmt.Printf("Interview %s (%s)\n", s.ID, state)
		fmt.Printf("  %-20s %s\n", "User:", s.UserID)
		fmt.Printf("  %-20s %s\n", "Started:", s.StartTime.Local().Format("2006-01-02 15:04"))
		fmt.Printf("  %-20s %s\n", "Last update:", s.LastUpdate.Local().Format("2006-01-02 15:04"))
		fmt.Printf("  %-20s %s, question %d\n", "Position:", stageTitle(s.CurrentStage), s.CurrentQuestionIndex+1)
		fmt.Printf("  %-20s %d/%d (%d%%)\n", "Answered:", p.AnsweredQuestions, p.TotalQuestions, p.Overall)
		fmt.Printf("  %-20s ~%d min\n", "Time remaining:", p.EstimatedTimeRemaining)
		fmt.Println()
		printStageTable(p, s.CurrentStage)
		return nil
	},
}

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Show the current question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		if Interview.State() == core.StateNoSession {
			return fmt.Errorf("no interview session, run 'yishu start' first")
		}
		printCurrentQuestion()
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next question in the current stage",
	Long: `Move to the next question of the current stage. A required question
must be answered first. This never moves into the next stage; use
'yishu advance' for that.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		if err := reportResult("moving to next question", Interview.NextQuestion(), "Moved to the next question."); err != nil {
			return err
		}
		printCurrentQuestion()
		return nil
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move back to the previous question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		if err := reportResult("moving to previous question", Interview.PreviousQuestion(), "Moved to the previous question."); err != nil {
			return err
		}
		printCurrentQuestion()
		return nil
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance to the next stage",
	Long: `Advance to the next stage once every required question of the current
stage has an answer. Advancing from the last stage completes the interview.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		r := Interview.AdvanceStage()
		if r.Finished {
			fmt.Println(successStyle.Render("Interview completed. Run 'yishu biography' to write it up."))
			return nil
		}
		if err := reportResult("advancing stage", r, "Advanced to the next stage."); err != nil {
			return err
		}
		printCurrentQuestion()
		return nil
	},
}

var jumpCmd = &cobra.Command{
	Use:   "jump <stage>",
	Short: "Jump to a stage without completing the current one",
	Long: `Jump to any stage, at its first question. Completeness of the current
stage is not checked.

Stages: childhood, education, career, relationship, reflection.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: stageNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		stage, err := models.ParseStage(args[0])
		if err != nil {
			return err
		}
		if err := reportResult("jumping to stage", Interview.JumpToStage(stage), "Jumped to "+stageTitle(stage)+"."); err != nil {
			return err
		}
		printCurrentQuestion()
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the interview",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		return reportResult("pausing interview", Interview.Pause(), "Interview paused. Run 'yishu resume' to continue.")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused interview",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		if err := reportResult("resuming interview", Interview.Continue(), "Interview resumed."); err != nil {
			return err
		}
		printCurrentQuestion()
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the interview and all of its answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}
		return reportResult("resetting interview", Interview.Reset(), "Interview discarded.")
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the interview stages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInterview(); err != nil {
			return err
		}

		catalog := Interview.Catalog()
		p := Interview.Progress()
		var current models.Stage
		if s := Interview.Session(); s != nil {
			current = s.CurrentStage
		}

		for i, st := range catalog.Stages() {
			info, _ := catalog.StageMetadata(st)
			qs := catalog.QuestionsForStage(st)
			required := 0
			for _, q := range qs {
				if q.Required {
					required++
				}
			}
			marker := " "
			if st == current {
				marker = "*"
			}
			fmt.Printf("%s %d. %-14s %s (%s)\n", marker, i+1, st, info.Title, info.AgeRange)
			fmt.Printf("     %s\n", dimStyle.Render(info.Description))
			fmt.Printf("     %d questions (%d required), ~%d min, %d%% done\n\n",
				len(qs), required, info.EstimatedMinutes, p.StageProgress[st])
		}
		return nil
	},
}

// printCurrentQuestion prints the question the session is positioned on.
func printCurrentQuestion() {
	q, ok := Interview.CurrentQuestion()
	if !ok {
		return
	}
	info, _ := Interview.CurrentStageInfo()
	qs := Interview.CurrentQuestions()

	fmt.Printf("%s  %d/%d\n", headerStyle.Render(info.Title), Interview.Session().CurrentQuestionIndex+1, len(qs))
	req := "optional"
	if q.Required {
		req = "required"
	}
	fmt.Printf("[%s] %s (%s)\n", q.ID, q.Text, req)
	if q.Placeholder != "" {
		fmt.Println(dimStyle.Render("  " + q.Placeholder))
	}
	for _, h := range core.QuestionHints(q) {
		fmt.Println(dimStyle.Render("  - " + h))
	}
	if a, ok := Interview.Answer(q.ID); ok {
		fmt.Printf("\nCurrent answer:\n  %s\n", a.Content)
	}
}

func printStageTable(p models.Progress, current models.Stage) {
	fmt.Printf("  %-2s %-14s %s\n", "", "STAGE", "PROGRESS")
	for _, st := range Interview.Catalog().Stages() {
		marker := ""
		if st == current {
			marker = "*"
		}
		pct := p.StageProgress[st]
		fmt.Printf("  %-2s %-14s %s %3d%%\n", marker, st, progressBar(pct, 20), pct)
	}
}

// progressBar renders pct as a fixed-width text bar.
func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func stageTitle(st models.Stage) string {
	if Interview != nil {
		if info, ok := Interview.Catalog().StageMetadata(st); ok {
			return info.Title
		}
	}
	return string(st)
}

func stageNames() []string {
	all := models.AllStages()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = string(st)
	}
	return names
}

func init() {
	startCmd.Flags().StringVar(&startUser, "user", "", "User id to record for this interview")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(questionCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(jumpCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(stagesCmd)
}
