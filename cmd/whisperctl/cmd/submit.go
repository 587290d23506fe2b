package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"whisperd/pkg/types"
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Submit a transcription job",
	Long: `Submit an audio file for transcription. The path is passed to the daemon
as-is; it must be reachable from the daemon's filesystem.

Example:
  whisperctl submit /data/uploads/interview.wav --model base --language en
  whisperctl submit recording.mp3 --devices 0,1
  whisperctl submit clip.wav --wait`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		model, _ := flags.GetString("model")
		language, _ := flags.GetString("language")
		devices, _ := flags.GetIntSlice("devices")
		wait, _ := flags.GetBool("wait")

		client := NewClient(viper.GetString("url"))
		req := types.SubmitRequest{Input: args[0], Model: model, Language: language}
		if flags.Changed("devices") {
			req.DeviceIDs = devices
		}

		resp, err := client.SubmitJob(req)
		if err != nil {
			printAPIError(cmd, "Submit failed", err)
			return
		}
		cmd.Printf("✓ Job submitted!\nJob ID: %s\nQueue position: %d\n", resp.JobID, resp.QueuePosition)

		if !wait {
			return
		}
		for {
			time.Sleep(time.Second)
			v, err := client.GetJob(resp.JobID)
			if err != nil {
				printAPIError(cmd, "Poll failed", err)
				return
			}
			cmd.Printf("%s %d%% %s\n", colorizeStatus(string(v.Status)), v.Progress, v.Message)
			if v.Status == types.StatusCompleted {
				cmd.Printf("Transcript: %s\n", v.Output)
				return
			}
			if v.Status == types.StatusFailed {
				cmd.Printf("%sFailed:%s %s\n", colorRed, colorReset, v.Error)
				return
			}
		}
	},
}

// printAPIError renders an API failure, including admission detail when the
// daemon suggests smaller models.
func printAPIError(cmd *cobra.Command, prefix string, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		cmd.Printf("%s: %v\n", prefix, err)
		return
	}
	cmd.Printf("%s (%d): %s\n", prefix, apiErr.StatusCode, apiErr.Message)
	for _, d := range apiErr.Detail.InsufficientDevices {
		cmd.Printf("  device %d: %d MiB free, %d MiB required\n", d.DeviceID, d.FreeMB, d.RequiredMB)
	}
	if len(apiErr.Detail.RecommendedModels) > 0 {
		cmd.Printf("  models that would fit: %v\n", apiErr.Detail.RecommendedModels)
	}
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("model", "m", "", "Model name (default: server default)")
	flags.StringP("language", "l", "", "Language hint, e.g. en (default: auto)")
	flags.IntSlice("devices", nil, "Device ids to run on (default: server default)")
	flags.BoolP("wait", "w", false, "Poll until the job reaches a terminal state")

	rootCmd.AddCommand(submitCmd)
}
