package cmd

import (
	"fmt"

	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/spf13/cobra"
)

// buildingCmd 管理当前选中的楼宇
var buildingCmd = &cobra.Command{
	Use:   "building",
	Short: "Manage the selected building",
}

var buildingSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the building new images belong to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		b := building.Building{ID: args[0], Name: name}
		if err := selection().Set(b); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected building %s\n", b.ID)
		return nil
	},
}

var buildingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected building",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, ok, err := selection().Get()
		if err != nil {
			return err
		}
		if !ok {
			return building.ErrNoBuildingSelected
		}
		if b.Name != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", b.ID, b.Name)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.ID)
		return nil
	},
}

var buildingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the selected building",
	RunE: func(cmd *cobra.Command, args []string) error {
		return selection().Clear()
	},
}

func init() {
	rootCmd.AddCommand(buildingCmd)
	buildingCmd.AddCommand(buildingSelectCmd, buildingShowCmd, buildingClearCmd)
	buildingSelectCmd.Flags().String("name", "", "Display name of the building")
}

// selection 楼宇选择不需要初始化存储
func selection() *building.Selection {
	return building.NewSelection(config.Get().BuildingStateFile)
}
