package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/hostkit/internal/doctor"
	"github.com/rileyhilliard/hostkit/internal/ui"
)

// doctorCmd diagnoses the environment a session depends on.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment for problems",
	Long: `Verify the binaries, configuration, and remote connectivity a host
session depends on, and suggest fixes for anything missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		results := doctor.RunAll(doctor.Checks(cfg))

		failed := 0
		category := ""
		for _, r := range results {
			if r.Category != category {
				category = r.Category
				fmt.Println(ui.Render(ui.HeaderStyle, category))
			}
			fmt.Printf("  %s %s\n", marker(r.Status), r.Message)
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				fmt.Printf("    %s\n", ui.Render(ui.DimStyle, r.Suggestion))
			}
			if r.Status == doctor.StatusFail {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func marker(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return ui.Render(ui.PassStyle, "✓")
	case doctor.StatusWarn:
		return ui.Render(ui.WarnStyle, "!")
	default:
		return ui.Render(ui.FailStyle, "✗")
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
