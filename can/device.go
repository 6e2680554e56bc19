// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-lpc/ccan/can/internal/regs"
	"github.com/go-lpc/ccan/internal/devmem"
)

// Device drives one C_CAN controller. The LPC15xx carries a single
// instance, so one Device is all a program ever needs.
type Device struct {
	msg *log.Logger
	cfg config

	mem struct {
		fd  *os.File
		can *devmem.Handle
		sys *devmem.Handle
		swm *devmem.Handle
	}

	regs struct {
		can canRegs
		sys sysRegs
		swm swmRegs
	}

	irq subscription

	err  error
	xbuf [4]byte
}

// New opens /dev/mem, maps the C_CAN, SYSCON and SWM register files,
// routes the controller to the rd/td pins and brings the bus up at the
// configured bit rate (100 kbit/s unless WithBitRate says otherwise).
func New(rd, td Pin, opts ...Option) (*Device, error) {
	return newDevice("/dev/mem", rd, td, opts...)
}

func newDevice(fname string, rd, td Pin, opts ...Option) (*Device, error) {
	mem, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("can: could not open %q: %w", fname, err)
	}
	defer func() {
		if err != nil {
			_ = mem.Close()
		}
	}()

	dev := &Device{
		cfg: newConfig(),
	}
	for _, opt := range opts {
		opt(&dev.cfg)
	}
	dev.msg = dev.cfg.msg
	dev.mem.fd = mem

	dev.mem.can, err = devmem.Map(mem, regs.CAN_BASE, regs.CAN_SPAN)
	if err != nil {
		return nil, fmt.Errorf("can: could not map C_CAN registers: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dev.mem.can.Close()
		}
	}()

	dev.mem.sys, err = devmem.Map(mem, regs.SYSCON_BASE, regs.SYSCON_SPAN)
	if err != nil {
		return nil, fmt.Errorf("can: could not map SYSCON registers: %w", err)
	}
	defer func() {
		if err != nil {
			_ = dev.mem.sys.Close()
		}
	}()

	dev.mem.swm, err = devmem.Map(mem, regs.SWM_BASE, regs.SWM_SPAN)
	if err != nil {
		return nil, fmt.Errorf("can: could not map SWM registers: %w", err)
	}

	dev.bind(dev.mem.can, dev.mem.sys, dev.mem.swm)

	err = dev.init(rd, td)
	if err != nil {
		return nil, fmt.Errorf("can: could not initialize controller: %w", err)
	}

	return dev, nil
}

// init powers up the controller's clock domain, routes the pins,
// programs the bit timing and carves the message-object table into its
// fixed RX/TX partition.
func (dev *Device) init(rd, td Pin) error {
	// Enable power and clock, pulse the peripheral reset.
	dev.regs.sys.clkctrl1.set(regs.SYSCTL_CAN)
	dev.regs.sys.preset1.set(regs.SYSCTL_CAN)
	dev.regs.sys.preset1.clr(regs.SYSCTL_CAN)

	// Enter initialization mode.
	if dev.regs.can.cntl.r()&regs.CNTL_INIT == 0 {
		dev.regs.can.cntl.set(regs.CNTL_INIT)
	}

	// Route CAN0 RD/TD through the switch matrix.
	pa := dev.regs.swm.pinassign6.r()
	pa &^= regs.PINASSIGN6_CAN_MASK
	pa |= uint32(rd)<<16 | uint32(td)<<8
	dev.regs.swm.pinassign6.w(pa)

	err := dev.SetFrequency(dev.cfg.rate)
	if err != nil {
		return err
	}

	// Resume operation.
	dev.regs.can.cntl.clr(regs.CNTL_INIT)
	err = dev.poll(dev.regs.can.cntl, regs.CNTL_INIT, 0)
	if err != nil {
		return fmt.Errorf("can: controller stuck in initialization mode: %w", err)
	}

	err = dev.initRxMsgObjs()
	if err != nil {
		return err
	}
	return dev.initTxMsgObjs()
}

// Close disables the controller's clock and power domain and releases
// the register mappings. The IRQ subscription, if any, is dropped.
func (dev *Device) Close() error {
	dev.StopNotify()

	dev.regs.sys.clkctrl1.clr(regs.SYSCTL_CAN)
	dev.regs.sys.preset1.clr(regs.SYSCTL_CAN)

	for _, h := range []*devmem.Handle{dev.mem.can, dev.mem.sys, dev.mem.swm} {
		if h == nil {
			continue
		}
		err := h.Close()
		if err != nil {
			return fmt.Errorf("can: could not unmap registers: %w", err)
		}
	}
	if dev.mem.fd != nil {
		err := dev.mem.fd.Close()
		if err != nil {
			return fmt.Errorf("can: could not close devmem: %w", err)
		}
	}
	return dev.err
}

// disable puts the controller in its (disabled) initialization state.
func (dev *Device) disable() {
	dev.regs.can.cntl.set(regs.CNTL_INIT)
}

// enable takes the controller out of its initialization state, if need
// be.
func (dev *Device) enable() {
	if dev.regs.can.cntl.r()&regs.CNTL_INIT != 0 {
		dev.regs.can.cntl.clr(regs.CNTL_INIT)
	}
}

// poll busy-waits until (register & mask) == want, giving up after the
// configured poll budget.
func (dev *Device) poll(reg reg32, mask, want uint32) error {
	for i := 0; i < dev.cfg.poll.max; i++ {
		if dev.err != nil {
			return dev.err
		}
		if reg.r()&mask == want {
			return nil
		}
		time.Sleep(dev.cfg.poll.sleep)
	}
	return ErrTimeout
}

// SetFrequency reprograms the bus bit rate. The controller transits
// through its configuration state; pending transfers are not preserved.
func (dev *Device) SetFrequency(rate uint32) error {
	btr := bitTiming(dev.cfg.clk, rate, dev.cfg.sjw)
	if btr == 0 {
		return fmt.Errorf("can: no timing for rate=%d Hz at clock=%d Hz: %w",
			rate, dev.cfg.clk, ErrNoTiming,
		)
	}
	clkdiv := (btr >> 16) & 0xF
	btr &= 0xFFFF

	dev.regs.can.cntl.set(regs.CNTL_CCE | regs.CNTL_INIT)
	dev.regs.can.clkdiv.w(clkdiv)
	dev.regs.can.bt.w(btr)
	dev.regs.can.brpe.w(0x0000)
	dev.regs.can.cntl.clr(regs.CNTL_CCE | regs.CNTL_INIT)

	if dev.err != nil {
		return fmt.Errorf("can: could not program bit timing: %w", dev.err)
	}
	return nil
}

// Reset clears the controller status, reinitializes the RX/TX
// message-object partition and re-enables the controller. A latched
// bus-off condition is cleared in the process.
func (dev *Device) Reset() error {
	dev.regs.sys.preset1.clr(regs.SYSCTL_CAN)
	dev.regs.can.stat.w(0)

	err := dev.initRxMsgObjs()
	if err != nil {
		return err
	}
	err = dev.initTxMsgObjs()
	if err != nil {
		return err
	}

	dev.enable()
	if dev.err != nil {
		return fmt.Errorf("can: could not reset controller: %w", dev.err)
	}
	return nil
}

// ErrorCounters reports the receive and transmit error counters of the
// controller. The receive counter saturates at 127, the transmit one
// at 255.
func (dev *Device) ErrorCounters() (rec, tec uint8, err error) {
	ec := dev.regs.can.ec.r()
	if dev.err != nil {
		return 0, 0, fmt.Errorf("can: could not read error counters: %w", dev.err)
	}
	return uint8((ec >> 8) & 0x7F), uint8(ec & 0xFF), nil
}

// SetMonitor toggles bus-monitor (silent) operation together with the
// controller enable.
func (dev *Device) SetMonitor(silent bool) error {
	switch {
	case silent:
		dev.regs.can.cntl.set(regs.CNTL_TEST)
		dev.regs.can.test.set(regs.TEST_SILENT)
	default:
		dev.regs.can.cntl.clr(regs.CNTL_TEST)
		dev.regs.can.test.clr(regs.TEST_SILENT)
	}

	if dev.regs.can.cntl.r()&regs.CNTL_INIT == 0 {
		dev.regs.can.cntl.set(regs.CNTL_INIT)
	}

	if dev.err != nil {
		return fmt.Errorf("can: could not set monitor mode: %w", dev.err)
	}
	return nil
}
