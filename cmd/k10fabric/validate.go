package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/komandara/k10fabric/soc"
)

var validateCmd = &cobra.Command{
	Use:   "validate [spec.yaml]",
	Short: "Check a system description and print its address map.",
	Long: "`validate spec.yaml` loads the description over the defaults and " +
		"checks the address map. Without a file the defaults are checked.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := soc.Defaults()

		if len(args) == 1 {
			var err error

			spec, err = soc.LoadSpec(args[0])
			if err != nil {
				return err
			}
		} else if err := spec.Validate(); err != nil {
			return err
		}

		dump, _ := cmd.Flags().GetBool("dump")

		return printSpec(cmd, spec, dump)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("dump", false,
		"print the full description as YAML")
}

func printSpec(cmd *cobra.Command, spec soc.Spec, dump bool) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "arbitration  %s\n", spec.Arbitration)
	fmt.Fprintf(out, "memory       %s\n", spec.MemoryRange())
	fmt.Fprintf(out, "periph       %s\n", spec.PeriphRange())
	fmt.Fprintf(out, "  timer      %s\n", spec.TimerRange())
	fmt.Fprintf(out, "  simctrl    %s\n", spec.SimCtrlRange())
	fmt.Fprintf(out, "  uart       %s\n", spec.UARTRange())

	if !dump {
		return nil
	}

	data, err := spec.Dump()
	if err != nil {
		return err
	}

	_, err = out.Write(data)

	return err
}
