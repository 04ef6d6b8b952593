package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rv32icore/sim/pkg/asm"
	"github.com/spf13/cobra"
)

func newAsmCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "asm <source>",
		Short: "Assemble an RV32I source file into a raw little-endian word image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fp.Close()

			var out io.Writer = os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			for ioe := range asm.StartAssembler(fp) {
				if ioe.Error != nil {
					return fmt.Errorf("rv32isim: line %d: %w", ioe.Lineno, ioe.Error)
				}
				var word [4]byte
				binary.LittleEndian.PutUint32(word[:], ioe.Instruction)
				if _, err := out.Write(word[:]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	return cmd
}
