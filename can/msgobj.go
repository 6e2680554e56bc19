// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"

	"github.com/go-lpc/ccan/can/internal/regs"
)

// waitIF blocks until the given message interface has no transfer in
// flight.
func (dev *Device) waitIF(ch *ifregs) error {
	return dev.poll(ch.cmdreq, regs.CMDREQ_BUSY, 0)
}

// transfer posts a transfer of the fields selected in cmdmsk between
// the given message interface and message object slot, then waits for
// the hardware to settle. Values must have been staged in the
// interface registers beforehand.
func (dev *Device) transfer(ch *ifregs, cmdmsk uint32, slot int) error {
	ch.cmdmsk.w(cmdmsk)
	ch.cmdreq.w(uint32(slot) & 0x3F)

	err := dev.waitIF(ch)
	if err != nil {
		return fmt.Errorf("can: transfer to message object %d did not complete: %w", slot, err)
	}
	return nil
}

// initRxMsgObjs configures message objects 1..31 as the receive pool:
// every slot is first invalidated ("accept nothing"), then slot 1 is
// widened to accept every standard frame.
func (dev *Device) initRxMsgObjs() error {
	if1 := &dev.regs.can.if1

	err := dev.waitIF(if1)
	if err != nil {
		return fmt.Errorf("can: message interface 1 not available: %w", err)
	}

	if1.arb1.w(0)
	if1.arb2.w(0)
	if1.mctrl.w(0)

	for i := 1; i <= rxMsgObjs; i++ {
		err = dev.transfer(if1, regs.CMDMSK_WR|regs.CMDMSK_ARB|regs.CMDMSK_CTRL, i)
		if err != nil {
			return err
		}
	}

	// Accept all messages.
	_, err = dev.Filter(0, 0, Standard, 1)
	return err
}

// initTxMsgObjs configures message object 32 as the (single) transmit
// mailbox.
func (dev *Device) initTxMsgObjs() error {
	if1 := &dev.regs.can.if1

	err := dev.waitIF(if1)
	if err != nil {
		return fmt.Errorf("can: message interface 1 not available: %w", err)
	}

	if1.arb1.w(0)
	if1.arb2.w(regs.ARB2_DIR)
	if1.mctrl.w(0)

	for i := rxMsgObjs + 1; i <= rxMsgObjs+txMsgObjs; i++ {
		err = dev.transfer(if1, regs.CMDMSK_WR|regs.CMDMSK_ARB|regs.CMDMSK_CTRL, i)
		if err != nil {
			return err
		}
	}
	return nil
}
