package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/snapshot"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "inspect [snapshot]",
		Short: "Browse the blocks, nets and alignment pairs of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			if plain || !isTerminal(os.Stdout) {
				printPlain(snap)
				return nil
			}
			_, err = tea.NewProgram(newInspectModel(snap), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print a summary instead of the interactive view")
	return cmd
}

func printPlain(s *snapshot.Snapshot) {
	fmt.Println(StyleTitle.Render(s.Circuit) + " " + StyleDim.Render(s.ID))
	printStats(s.Stats, len(s.Partners), false)
	printSummary(s)
	printKeyValue("HPWL", fmt.Sprintf("%g", s.Stats.HPWL))
	if len(s.Partners) > 0 {
		fmt.Println(partnerTable(s.Partners))
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
