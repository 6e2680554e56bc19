// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"

	"github.com/go-lpc/ccan/can/internal/regs"
)

// Handler receives controller events from the interrupt dispatcher.
// The id token is the one passed to Notify.
type Handler func(id uint32, ev Event)

// IRQController abstracts the interrupt controller (NVIC) the C_CAN
// interrupt line is routed through. Installing the vector and managing
// the interrupt priority are platform services outside this driver.
type IRQController interface {
	SetVector(fn func())
	Enable()
	Disable()
}

type nopIRQController struct{}

func (nopIRQController) SetVector(func()) {}
func (nopIRQController) Enable()          {}
func (nopIRQController) Disable()         {}

const (
	irqEnaTX = 1 << 0
	irqEnaRX = 1 << 1
	irqEnaEW = 1 << 2
	irqEnaEP = 1 << 3
	irqEnaBE = 1 << 4

	irqEnaStatus = irqEnaTX | irqEnaRX
	irqEnaError  = irqEnaEW | irqEnaEP | irqEnaBE
	irqEnaAny    = irqEnaStatus | irqEnaError
)

// subscription is the IRQ state owned by a Device: one handler, one
// opaque id token, and the bitmask of enabled event categories.
type subscription struct {
	handler Handler
	id      uint32
	enabled uint32
}

// Notify registers fn as the event handler of the device. The id token
// is handed back verbatim on every event.
func (dev *Device) Notify(fn Handler, id uint32) {
	dev.irq.handler = fn
	dev.irq.id = id
}

// StopNotify drops the event subscription and masks the controller
// interrupt line.
func (dev *Device) StopNotify() {
	dev.regs.can.cntl.clr(regs.CNTL_IE)
	dev.irq = subscription{}
	dev.cfg.irqc.Disable()
}

// SetEventEnabled includes ev in (or excludes it from) the set of
// dispatched event categories and reprograms the controller interrupt
// enables from the union of what is left. The controller transits
// through its disabled state while the enables change.
func (dev *Device) SetEventEnabled(ev Event, on bool) error {
	var mask uint32
	switch ev {
	case EventRx:
		mask = irqEnaRX
	case EventTx:
		mask = irqEnaTX
	case EventWarning:
		mask = irqEnaEW
	case EventPassive:
		mask = irqEnaEP
	case EventBusOff:
		mask = irqEnaBE
	default:
		return fmt.Errorf("can: unknown event category %v", ev)
	}

	switch {
	case on:
		dev.irq.enabled |= mask
	default:
		dev.irq.enabled &^= mask
	}

	dev.disable()
	switch {
	case dev.irq.enabled&irqEnaAny == 0:
		dev.regs.can.cntl.clr(regs.CNTL_IE | regs.CNTL_SIE | regs.CNTL_EIE)
	default:
		dev.regs.can.cntl.set(regs.CNTL_IE)
		// Status interrupts are used instead of message interrupts to
		// avoid stomping over potential filter configurations.
		switch {
		case dev.irq.enabled&irqEnaStatus != 0:
			dev.regs.can.cntl.set(regs.CNTL_SIE)
		default:
			dev.regs.can.cntl.clr(regs.CNTL_SIE)
		}
		switch {
		case dev.irq.enabled&irqEnaError != 0:
			dev.regs.can.cntl.set(regs.CNTL_EIE)
		default:
			dev.regs.can.cntl.clr(regs.CNTL_EIE)
		}
	}
	dev.enable()

	dev.cfg.irqc.SetVector(dev.ServiceIRQ)
	dev.cfg.irqc.Enable()

	if dev.err != nil {
		return fmt.Errorf("can: could not program interrupt enables: %w", dev.err)
	}
	return nil
}

// ServiceIRQ decodes one coalesced status interrupt into event
// callbacks. It is meant to be installed as (or called from) the
// C_CAN interrupt vector. Message-object interrupt identifiers are
// ignored: the driver never arms them.
func (dev *Device) ServiceIRQ() {
	intid := dev.regs.can.intr.r() & 0xFFFF
	if intid != regs.INT_STATUS {
		return
	}

	status := dev.regs.can.stat.r()
	// It is impossible to tell which specific status transition raised
	// the line, so every pending cause is reported on this one pass.
	// In particular EWARN is not mutually exclusive with the others and
	// may come in together with transmit and receive completions.
	if status&regs.STAT_BOFF != 0 {
		if dev.irq.enabled&irqEnaBE != 0 {
			dev.event(EventBusOff)
		}
	}
	if status&regs.STAT_EPASS != 0 {
		if dev.irq.enabled&irqEnaEP != 0 {
			dev.event(EventPassive)
		}
	}
	if status&regs.STAT_EWARN != 0 {
		if dev.irq.enabled&irqEnaEW != 0 {
			dev.event(EventWarning)
		}
	}
	if status&regs.STAT_RXOK != 0 {
		// RXOK is latched and cleared here whether or not anybody
		// subscribed to receive events.
		dev.regs.can.stat.clr(regs.STAT_RXOK)
		dev.event(EventRx)
	}
	if status&regs.STAT_TXOK != 0 {
		dev.regs.can.stat.clr(regs.STAT_TXOK)
		dev.event(EventTx)
	}
}

func (dev *Device) event(ev Event) {
	if dev.irq.handler == nil {
		return
	}
	dev.irq.handler(dev.irq.id, ev)
}
