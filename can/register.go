// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/ccan/can/internal/regs"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(dev *Device, rw rwer, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return dev.readU32(rw, offset)
		},
		w: func(v uint32) {
			dev.writeU32(rw, offset, v)
		},
	}
}

func (reg reg32) set(mask uint32) { reg.w(reg.r() | mask) }
func (reg reg32) clr(mask uint32) { reg.w(reg.r() &^ mask) }

func (dev *Device) readU32(r io.ReaderAt, off int64) uint32 {
	if dev.err != nil {
		return 0
	}
	_, dev.err = r.ReadAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("can: could not read register 0x%x: %w", off, dev.err)
		return 0
	}
	return binary.LittleEndian.Uint32(dev.xbuf[:4])
}

func (dev *Device) writeU32(w io.WriterAt, off int64, v uint32) {
	if dev.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(dev.xbuf[:4], v)
	_, dev.err = w.WriteAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("can: could not write register 0x%x: %w", off, dev.err)
		return
	}
}

// ifregs is one of the two C_CAN message interfaces, the staging area
// for transfers to and from message RAM.
type ifregs struct {
	cmdreq reg32
	cmdmsk reg32
	msk1   reg32
	msk2   reg32
	arb1   reg32
	arb2   reg32
	mctrl  reg32
	da1    reg32
	da2    reg32
	db1    reg32
	db2    reg32
}

type canRegs struct {
	cntl   reg32
	stat   reg32
	ec     reg32
	bt     reg32
	intr   reg32
	test   reg32
	brpe   reg32
	clkdiv reg32

	if1 ifregs // configuration and transmit channel
	if2 ifregs // receive channel

	txreq1 reg32
	txreq2 reg32
	nd1    reg32
	nd2    reg32
	msgv1  reg32
	msgv2  reg32
}

type sysRegs struct {
	preset1  reg32 // PRESETCTRL1
	clkctrl1 reg32 // SYSAHBCLKCTRL1
}

type swmRegs struct {
	pinassign6 reg32
}

func (dev *Device) bind(can, sys, swm rwer) {
	dev.regs.can.cntl = newReg32(dev, can, regs.CANCNTL)
	dev.regs.can.stat = newReg32(dev, can, regs.CANSTAT)
	dev.regs.can.ec = newReg32(dev, can, regs.CANEC)
	dev.regs.can.bt = newReg32(dev, can, regs.CANBT)
	dev.regs.can.intr = newReg32(dev, can, regs.CANINT)
	dev.regs.can.test = newReg32(dev, can, regs.CANTEST)
	dev.regs.can.brpe = newReg32(dev, can, regs.CANBRPE)
	dev.regs.can.clkdiv = newReg32(dev, can, regs.CANCLKDIV)

	dev.regs.can.if1 = ifregs{
		cmdreq: newReg32(dev, can, regs.CANIF1_CMDREQ),
		cmdmsk: newReg32(dev, can, regs.CANIF1_CMDMSK),
		msk1:   newReg32(dev, can, regs.CANIF1_MSK1),
		msk2:   newReg32(dev, can, regs.CANIF1_MSK2),
		arb1:   newReg32(dev, can, regs.CANIF1_ARB1),
		arb2:   newReg32(dev, can, regs.CANIF1_ARB2),
		mctrl:  newReg32(dev, can, regs.CANIF1_MCTRL),
		da1:    newReg32(dev, can, regs.CANIF1_DA1),
		da2:    newReg32(dev, can, regs.CANIF1_DA2),
		db1:    newReg32(dev, can, regs.CANIF1_DB1),
		db2:    newReg32(dev, can, regs.CANIF1_DB2),
	}
	dev.regs.can.if2 = ifregs{
		cmdreq: newReg32(dev, can, regs.CANIF2_CMDREQ),
		cmdmsk: newReg32(dev, can, regs.CANIF2_CMDMSK),
		msk1:   newReg32(dev, can, regs.CANIF2_MSK1),
		msk2:   newReg32(dev, can, regs.CANIF2_MSK2),
		arb1:   newReg32(dev, can, regs.CANIF2_ARB1),
		arb2:   newReg32(dev, can, regs.CANIF2_ARB2),
		mctrl:  newReg32(dev, can, regs.CANIF2_MCTRL),
		da1:    newReg32(dev, can, regs.CANIF2_DA1),
		da2:    newReg32(dev, can, regs.CANIF2_DA2),
		db1:    newReg32(dev, can, regs.CANIF2_DB1),
		db2:    newReg32(dev, can, regs.CANIF2_DB2),
	}

	dev.regs.can.txreq1 = newReg32(dev, can, regs.CANTXREQ1)
	dev.regs.can.txreq2 = newReg32(dev, can, regs.CANTXREQ2)
	dev.regs.can.nd1 = newReg32(dev, can, regs.CANND1)
	dev.regs.can.nd2 = newReg32(dev, can, regs.CANND2)
	dev.regs.can.msgv1 = newReg32(dev, can, regs.CANMSGV1)
	dev.regs.can.msgv2 = newReg32(dev, can, regs.CANMSGV2)

	dev.regs.sys.preset1 = newReg32(dev, sys, regs.PRESETCTRL1)
	dev.regs.sys.clkctrl1 = newReg32(dev, sys, regs.SYSAHBCLKCTRL1)

	dev.regs.swm.pinassign6 = newReg32(dev, swm, regs.PINASSIGN6)
}
