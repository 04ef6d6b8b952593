package main

import (
	"github.com/BurntSushi/toml"
)

// runConfig is the optional TOML configuration accepted by the run, step
// and regs subcommands: initial register pokes, an mtvec (trap vector) override, and
// the trace/halt budgets the teacher exposed as bare CLI flags.
type runConfig struct {
	Registers map[string]uint32 `toml:"registers"`
	Mtvec     *uint32           `toml:"mtvec"`
	MaxTicks  uint64            `toml:"max_ticks"`
	Trace     bool              `toml:"trace"`
}

func loadConfig(path string) (runConfig, error) {
	var cfg runConfig
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
