package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yishu-dev/yishu/internal/integration"
	"github.com/yishu-dev/yishu/pkg/models"
)

var (
	biographyStyle string
	biographyName  string
	biographyJSON  bool

	exportFormat string
	exportOut    string
	exportTo     string
	exportStyle  string
)

var biographyCmd = &cobra.Command{
	Use:   "biography",
	Short: "Write a biography from the interview answers",
	Long: `Turn the answers given so far into a biography, one chapter per stage
that has answers. The interview does not need to be complete.

--style picks the voice (see 'yishu styles'); --name sets the subject's name
used in the title and opening.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bio, err := generateBiography(cmd, biographyStyle)
		if err != nil {
			return err
		}

		if biographyJSON {
			data, err := json.MarshalIndent(bio, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting biography as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(titleStyle.Render(" " + bio.Title + " "))
		fmt.Println()
		fmt.Println(bio.Content)
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d chapter(s), %d characters, style %s", len(bio.Chapters), bio.WordCount, bio.Style)))
		if len(bio.Unplaced) > 0 {
			fmt.Println(noticeWarningStyle.Render("Answers not placed in any chapter: " + strings.Join(bio.Unplaced, ", ")))
		}
		return nil
	},
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available biography styles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Biographer == nil {
			return fmt.Errorf("biography generator not initialized")
		}
		fmt.Printf("  %-16s %-12s %s\n", "KEY", "NAME", "DESCRIPTION")
		for _, s := range Biographer.ListStyles() {
			marker := " "
			if s.Key == DefaultStyle {
				marker = "*"
			}
			fmt.Printf("%s %-16s %-12s %s\n", marker, s.Key, s.Name, s.Description)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the biography to a document or send it by e-mail",
	Long: `Generate the biography and export it.

Formats: text, word, markdown, html (written to export.dir or --out) and
email (sent through Amazon SES to --to; requires export.ses.from_email).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Exporter == nil {
			return fmt.Errorf("exporter not initialized")
		}

		format := exportFormat
		if format == "" {
			format = DefaultFormat
		}
		if format == "" {
			format = "text"
		}
		target := exportOut
		if format == "email" {
			if exportTo == "" {
				return fmt.Errorf("--to is required for the email format")
			}
			target = exportTo
		}

		bio, err := generateBiography(cmd, exportStyle)
		if err != nil {
			return err
		}

		location, err := Exporter.Export(commandContext(cmd), format, integration.DocumentFromBiography(bio), target)
		if err != nil {
			return fmt.Errorf("exporting biography: %w", err)
		}
		if format == "email" {
			fmt.Println(successStyle.Render(fmt.Sprintf("Biography sent to %s (message %s)", exportTo, location)))
			return nil
		}
		fmt.Println(successStyle.Render("Biography written to " + location))
		return nil
	},
}

func generateBiography(cmd *cobra.Command, style string) (*models.Biography, error) {
	if Biographer == nil || Interview == nil {
		return nil, fmt.Errorf("biography generator not initialized")
	}
	answers := Interview.Answers()
	if len(answers) == 0 {
		return nil, fmt.Errorf("no answers yet, answer a few questions first")
	}

	if style == "" {
		style = DefaultStyle
	}
	name := biographyName
	if name == "" {
		name = SubjectName
	}

	bio, err := Biographer.Generate(commandContext(cmd), answers, style, name)
	if err != nil {
		return nil, fmt.Errorf("generating biography: %w", err)
	}
	return bio, nil
}

func init() {
	biographyCmd.Flags().StringVar(&biographyStyle, "style", "", "Biography style key (default from config)")
	biographyCmd.Flags().StringVar(&biographyName, "name", "", "Subject name (default from config)")
	biographyCmd.Flags().BoolVar(&biographyJSON, "json", false, "Output the biography as JSON")

	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format: text, word, markdown, html, email")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default export.dir)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Recipient e-mail address for the email format")
	exportCmd.Flags().StringVar(&exportStyle, "style", "", "Biography style key (default from config)")
	exportCmd.Flags().StringVar(&biographyName, "name", "", "Subject name (default from config)")

	rootCmd.AddCommand(biographyCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(exportCmd)
}
