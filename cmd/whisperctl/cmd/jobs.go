package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List all known jobs",
	Long:  `List queued, processing, and recently finished jobs with their queue positions and progress.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		resp, err := client.ListJobs()
		if err != nil {
			printAPIError(cmd, "List failed", err)
			return
		}
		cmd.Printf("%sQueue depth:%s %d   %sRunning:%s %d\n\n",
			colorDim, colorReset, resp.QueueDepth, colorDim, colorReset, resp.Running)
		if len(resp.Jobs) == 0 {
			cmd.Println("No jobs.")
			return
		}
		for _, v := range resp.Jobs {
			pos := ""
			if v.QueuePosition >= 0 {
				pos = positionLabel(v.QueuePosition)
			}
			cmd.Printf("%s  %s  %3d%%  %s %s%s\n",
				colorizeStatus(string(v.Status)), v.ID, v.Progress, v.Input, colorDim+pos, colorReset)
		}
	},
}

func positionLabel(pos int) string {
	return "(position " + itoa(pos) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
