package main

import (
	"os"

	"github.com/spf13/cobra"

	"borrowck/internal/ir"
	"borrowck/internal/irpack"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <unit.irpk>",
	Short: "Decode a serialized IR unit and print it",
	Long:  `Dump decodes a serialized IR compilation unit and prints a deterministic textual representation of its functions`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := irpack.Load(args[0])
		if err != nil {
			return err
		}
		return ir.DumpUnit(os.Stdout, unit)
	},
}
