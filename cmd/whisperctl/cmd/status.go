package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"whisperd/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Get status of a job",
	Long:  `Retrieve detailed status for a transcription job: lifecycle state, progress, queue position, timestamps, and the transcript path once completed.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		v, err := client.GetJob(args[0])
		if err != nil {
			printAPIError(cmd, "Status failed", err)
			return
		}
		printJob(cmd, *v)
	},
}

func printJob(cmd *cobra.Command, v types.JobView) {
	icon := statusIcon(string(v.Status))
	cmd.Printf("%s %sJob Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, v.ID)
	cmd.Printf("%sInput:%s     %s\n", colorDim, colorReset, v.Input)
	cmd.Printf("%sModel:%s     %s\n", colorDim, colorReset, v.Model)
	if v.Language != "" {
		cmd.Printf("%sLanguage:%s  %s\n", colorDim, colorReset, v.Language)
	}
	cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(string(v.Status)))
	cmd.Printf("%sProgress:%s  %d%%\n", colorDim, colorReset, v.Progress)
	if v.QueuePosition >= 0 {
		cmd.Printf("%sPosition:%s  %d\n", colorDim, colorReset, v.QueuePosition)
	}
	cmd.Printf("%sQueued:%s    %s\n", colorDim, colorReset, formatUnix(v.QueuedUnix))
	cmd.Printf("%sStarted:%s   %s\n", colorDim, colorReset, formatUnix(v.StartedUnix))
	if v.EndedUnix > 0 && v.StartedUnix > 0 {
		dur := time.Duration(v.EndedUnix-v.StartedUnix) * time.Second
		cmd.Printf("%sFinished:%s  %s %s(%s)%s\n", colorDim, colorReset,
			formatUnix(v.EndedUnix), colorCyan, dur, colorReset)
	} else {
		cmd.Printf("%sFinished:%s  %s\n", colorDim, colorReset, formatUnix(v.EndedUnix))
	}
	if v.Output != "" {
		cmd.Printf("%sOutput:%s    %s\n", colorDim, colorReset, v.Output)
	}
	if v.Error != "" {
		cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, v.Error, colorReset)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "completed":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "processing":
		return colorYellow + "⏳" + colorReset
	case "queued":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "completed":
		return icon + " " + colorGreen + status + colorReset
	case "failed":
		return icon + " " + colorRed + status + colorReset
	case "processing":
		return icon + " " + colorYellow + status + colorReset
	case "queued":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	t := time.Unix(ts, 0)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"),
		colorDim, relativeTime(t), colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
