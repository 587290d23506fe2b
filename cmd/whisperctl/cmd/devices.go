package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Show compute devices and their memory state",
	Long:  `List the devices the daemon schedules onto, with fresh total/used/free memory readings.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		resp, err := client.ListDevices()
		if err != nil {
			printAPIError(cmd, "Devices failed", err)
			return
		}
		if len(resp.Devices) == 0 {
			cmd.Println("No devices (CPU-only deployment).")
			return
		}
		for _, d := range resp.Devices {
			cmd.Printf("%s[%d]%s %s\n", colorBold, d.ID, colorReset, d.Name)
			cmd.Printf("    %smemory:%s %d/%d MiB used, %s%d MiB free%s\n",
				colorDim, colorReset, d.UsedMB, d.TotalMB, colorGreen, d.FreeMB, colorReset)
			if d.Utilization > 0 || d.Temperature > 0 {
				cmd.Printf("    %sload:%s   %d%% util, %d°C\n",
					colorDim, colorReset, d.Utilization, d.Temperature)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
