package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show known models and whether they currently fit",
	Long: `List the model footprint table. A model "fits" when its footprint
plus the safety margin is below the free memory of the daemon's
default devices right now.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		resp, err := client.ListModels()
		if err != nil {
			printAPIError(cmd, "Models failed", err)
			return
		}
		for _, m := range resp.Models {
			fit := colorRed + "✗ too large" + colorReset
			if m.Fits {
				fit = colorGreen + "✓ fits" + colorReset
			}
			mark := " "
			if m.Default {
				mark = colorCyan + "*" + colorReset
			}
			cmd.Printf("%s %-10s %6d MiB  %s\n", mark, m.Name, m.FootprintMB, fit)
		}
		if len(resp.Languages) > 0 {
			cmd.Printf("\n%sLanguages:%s %s\n", colorDim, colorReset, strings.Join(resp.Languages, ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
