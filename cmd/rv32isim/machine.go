package main

import (
	"fmt"
	"os"

	"github.com/rv32icore/sim/pkg/asm"
	"github.com/rv32icore/sim/pkg/core"
	"github.com/rv32icore/sim/pkg/loader"
)

// loadImage reads a raw little-endian word image from path and installs
// it into a freshly constructed CPU's ROM.
func loadImage(path string) (*core.CPU, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	words, err := loader.LoadWords(data)
	if err != nil {
		return nil, fmt.Errorf("rv32isim: %w", err)
	}
	cpu := core.NewCPU()
	cpu.ROM.Load(words)
	return cpu, nil
}

// applyConfig pokes the register and mtvec overrides named in cfg into
// cpu before the first tick.
func applyConfig(cpu *core.CPU, cfg runConfig) error {
	for name, value := range cfg.Registers {
		idx, err := asm.ResolveRegister(name)
		if err != nil {
			return err
		}
		cpu.Regs.Poke(uint8(idx), value)
	}
	if cfg.Mtvec != nil {
		cpu.CSR.Mtvec = *cfg.Mtvec
	}
	return nil
}
