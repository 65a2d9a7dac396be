package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/kotowari/internal/app"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start the interactive practice coach",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

func runPractice(cmd *cobra.Command) error {
	rt, err := openServices(cmd, logToFile)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()
	if err := rt.withProvider(ctx); err != nil {
		return err
	}

	return app.Run(app.Options{
		Coach:       rt.coach(ctx),
		Logger:      rt.logger.Named("app"),
		Notice:      rt.notice,
		SkipWelcome: userFromFlag(cmd),
	})
}
