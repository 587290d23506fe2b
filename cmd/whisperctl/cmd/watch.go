package cmd

import (
	"bufio"
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live event stream",
	Long: `Attach to the daemon's event stream and print every lifecycle event
as it happens (queued, model_loading, processing, progress,
completed, failed, memory_low, shutdown). Interrupt to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		body, err := client.OpenEvents()
		if err != nil {
			printAPIError(cmd, "Watch failed", err)
			return
		}
		defer body.Close()

		cmd.Printf("%sWatching events (Ctrl-C to stop)...%s\n", colorDim, colorReset)
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			printEventLine(cmd, scanner.Bytes())
		}
		if err := scanner.Err(); err != nil {
			cmd.Printf("%sstream closed:%s %v\n", colorDim, colorReset, err)
		}
	},
}

// printEventLine renders one NDJSON event line, falling back to raw output
// when the line does not parse.
func printEventLine(cmd *cobra.Command, line []byte) {
	var ev struct {
		Event  string         `json:"event"`
		JobID  string         `json:"job_id,omitempty"`
		Fields map[string]any `json:"fields,omitempty"`
	}
	if err := json.Unmarshal(line, &ev); err != nil || ev.Event == "" {
		cmd.Println(string(line))
		return
	}
	color := colorCyan
	switch ev.Event {
	case "completed":
		color = colorGreen
	case "failed", "memory_low":
		color = colorRed
	case "processing", "progress":
		color = colorYellow
	}
	cmd.Printf("%s%-14s%s", color, ev.Event, colorReset)
	if ev.JobID != "" {
		cmd.Printf(" %s", ev.JobID)
	}
	for k, v := range ev.Fields {
		cmd.Printf(" %s%s=%s%v", colorDim, k, colorReset, v)
	}
	cmd.Println()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
