package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func newRegsCmd() *cobra.Command {
	var configPath string
	var ticks uint64

	cmd := &cobra.Command{
		Use:   "regs <image>",
		Short: "Run an image for a fixed number of ticks, then dump the register file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpu, err := loadImage(args[0])
			if err != nil {
				return err
			}
			if configPath != "" {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				if err := applyConfig(cpu, cfg); err != nil {
					return err
				}
			}
			for i := uint64(0); i < ticks; i++ {
				cpu.Cycle()
			}
			for i := 0; i < 32; i++ {
				fmt.Printf("x%-2d %-4s = 0x%08x\n", i, regNames[i], cpu.Regs.Get(uint8(i)))
			}
			fmt.Printf("pc         = 0x%08x\n", cpu.CurrentLine())
			fmt.Printf("cycles     = %d\n", cpu.CSR.Cycles())
			fmt.Printf("instret    = %d\n", cpu.CSR.Instret())
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML run configuration file")
	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "number of ticks to run before dumping registers")
	return cmd
}
