package main

import (
	"fmt"

	"github.com/rv32icore/sim/pkg/core"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var maxTicks uint64
	var trace bool
	var console string

	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Load a program image into ROM and run it up to a tick limit (a trap does not stop the run)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			log := newLogger(verbose)
			defer log.Sync()

			cpu, err := loadImage(args[0])
			if err != nil {
				return err
			}

			cfg := runConfig{MaxTicks: maxTicks, Trace: trace}
			if configPath != "" {
				loaded, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = mergeConfig(loaded, cfg)
			}
			if err := applyConfig(cpu, cfg); err != nil {
				return err
			}

			var mailbox *consoleMailbox
			if console != "" {
				mailbox, err = newConsoleMailbox(console, log)
				if err != nil {
					return err
				}
				defer mailbox.Close()
			}

			limit := cfg.MaxTicks
			if limit == 0 {
				limit = 1_000_000
			}
			var ticks uint64
			for ; ticks < limit; ticks++ {
				if cfg.Trace {
					traceTick(log, cpu)
				}
				cpu.Cycle()
				if mailbox != nil {
					mailbox.Poll(cpu)
				}
			}
			log.Infow("run finished", "ticks", ticks, "instret", cpu.CSR.Instret(), "pc", fmt.Sprintf("0x%08x", cpu.CurrentLine()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML run configuration file")
	cmd.Flags().Uint64Var(&maxTicks, "max-ticks", 0, "stop after this many ticks (default 1,000,000)")
	cmd.Flags().BoolVar(&trace, "trace", false, "log pc/instret every tick at debug level (shown with --verbose)")
	cmd.Flags().StringVar(&console, "console", "", "open a TCP console on this address, forwarding RAM mailbox byte stores")
	return cmd
}

func mergeConfig(file, flags runConfig) runConfig {
	out := file
	if flags.MaxTicks != 0 {
		out.MaxTicks = flags.MaxTicks
	}
	if flags.Trace {
		out.Trace = true
	}
	return out
}

func traceTick(log interface {
	Debugw(string, ...interface{})
}, cpu *core.CPU) {
	log.Debugw("tick", "pc", fmt.Sprintf("0x%08x", cpu.CurrentLine()), "instret", cpu.CSR.Instret())
}
