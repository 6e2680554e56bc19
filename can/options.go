// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"log"
	"os"
	"time"
)

type config struct {
	clk  uint32 // controller core clock, in Hz
	rate uint32 // requested bit rate, in Hz
	sjw  uint8  // resynchronization jump width, in quanta

	poll struct {
		max   int           // retries before a register transfer times out
		sleep time.Duration // pause between retries
	}

	msg  *log.Logger
	irqc IRQController
}

func newConfig() config {
	var cfg config
	cfg.clk = 72000000 // LPC15xx system clock from PLL
	cfg.rate = 100000
	cfg.sjw = 1
	cfg.poll.max = 1000
	cfg.poll.sleep = 1 * time.Microsecond
	cfg.msg = log.New(os.Stdout, "can: ", 0)
	cfg.irqc = nopIRQController{}
	return cfg
}

// Option configures a CAN device.
type Option func(*config)

// WithCoreClock sets the controller core clock frequency, in Hz, used
// by the bit-timing calculation.
func WithCoreClock(hz uint32) Option {
	return func(cfg *config) {
		cfg.clk = hz
	}
}

// WithBitRate sets the initial bus bit rate, in Hz.
func WithBitRate(hz uint32) Option {
	return func(cfg *config) {
		cfg.rate = hz
	}
}

// WithLogger sets the logger used by the device.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithIRQController sets the interrupt controller the C_CAN interrupt
// line is routed through.
func WithIRQController(irqc IRQController) Option {
	return func(cfg *config) {
		cfg.irqc = irqc
	}
}

// WithPollBudget bounds the busy-wait on hardware register transfers:
// at most max polls, sleeping for the given duration between polls.
func WithPollBudget(max int, sleep time.Duration) Option {
	return func(cfg *config) {
		cfg.poll.max = max
		cfg.poll.sleep = sleep
	}
}
