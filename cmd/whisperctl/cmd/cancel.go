package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a queued or processing job",
	Long: `Request cancellation of a job. Queued jobs are removed immediately;
processing jobs are interrupted and reported as failed with a
cancellation reason.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		if err := client.CancelJob(args[0]); err != nil {
			printAPIError(cmd, "Cancel failed", err)
			return
		}
		cmd.Printf("%s✓%s Cancellation requested for %s\n", colorGreen, colorReset, args[0])
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
