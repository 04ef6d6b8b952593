package main

import (
	"net"

	"github.com/rv32icore/sim/pkg/core"
	"go.uber.org/zap"
)

// consoleMailboxAddr is a fixed RAM byte address this development aid
// watches for stores. It is not part of the simulated architecture: the
// simulated CPU has no idea this address is special, it is just ordinary
// RAM it may or may not ever write to.
const consoleMailboxAddr = 0x2000_0000

// consoleMailbox is a dev-aid TCP console adapted from the teacher's
// SerialTTY: instead of being wired into the bus as a memory-mapped
// peripheral (the teacher's VM had no fixed memory map to preserve), it
// polls a single RAM byte after every tick and forwards it to a
// connected console whenever the guest program stores a new value there.
type consoleMailbox struct {
	listener net.Listener
	conn     net.Conn
	log      *zap.SugaredLogger
	last     uint8
	seen     bool
}

func newConsoleMailbox(addr string, log *zap.SugaredLogger) (*consoleMailbox, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	log.Infow("console: waiting for a connection", "addr", ln.Addr())
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, err
	}
	log.Infow("console: attached", "remote", conn.RemoteAddr())
	return &consoleMailbox{listener: ln, conn: conn, log: log}, nil
}

// Poll checks the mailbox byte and writes it to the console connection if
// it changed since the last poll; the first poll always writes it.
func (c *consoleMailbox) Poll(cpu *core.CPU) {
	b := cpu.Bus.ReadByte(consoleMailboxAddr)
	if c.seen && b == c.last {
		return
	}
	c.seen = true
	c.last = b
	if _, err := c.conn.Write([]byte{b}); err != nil {
		c.log.Warnw("console: write failed", "error", err)
	}
}

func (c *consoleMailbox) Close() error {
	c.conn.Close()
	return c.listener.Close()
}
