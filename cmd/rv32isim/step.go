package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "step <image>",
		Short: "Single-tick REPL debugger: press enter to advance one tick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			log := newLogger(verbose)
			defer log.Sync()

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

			reader := bufio.NewReader(os.Stdin)
			var ticks uint64
			for {
				fmt.Printf("tick=%d pc=0x%08x instret=%d (enter to step, q to quit)\n",
					ticks, cpu.CurrentLine(), cpu.CSR.Instret())
				line, _ := reader.ReadString('\n')
				if line == "q\n" || line == "quit\n" {
					return nil
				}
				cpu.Cycle()
				ticks++
			}
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML run configuration file")
	return cmd
}
