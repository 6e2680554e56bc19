// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"

	"github.com/go-lpc/ccan/can/internal/regs"
)

// Write hands msg to the transmit mailbox and requests transmission.
// There is no queue: when the mailbox still has a transmission pending,
// Write fails at once with ErrTxBusy and touches no register.
func (dev *Device) Write(msg Message) error {
	dev.enable()

	// Find first transmit mailbox without a pending request.
	txPending := dev.regs.can.txreq1.r() | dev.regs.can.txreq2.r()<<16
	slot := 0
	for i := rxMsgObjs; i < numMsgObjs; i++ {
		if txPending&(1<<i) == 0 {
			slot = i + 1
			break
		}
	}
	if slot == 0 {
		if dev.err != nil {
			return fmt.Errorf("can: could not scan transmit mailboxes: %w", dev.err)
		}
		return ErrTxBusy
	}

	if1 := &dev.regs.can.if1
	err := dev.waitIF(if1)
	if err != nil {
		return fmt.Errorf("can: message interface 1 not available: %w", err)
	}

	// The direction bit is set for data frames only: a clear bit on a
	// transmit object turns the frame into a remote request.
	var dir uint32
	if msg.Type == Data {
		dir = regs.ARB2_DIR
	}

	switch msg.Format {
	case Extended:
		if1.arb1.w(msg.ID & 0xFFFF)
		if1.arb2.w(regs.ARB2_MSGVAL | regs.ARB2_XTD | dir | (msg.ID>>16)&0x1FFF)
		if1.msk1.w(idExtMask & 0xFFFF)
		if1.msk2.w(regs.MSK2_MXTD | regs.MSK2_MDIR | (idExtMask>>16)&0x1FFF)
	default:
		if1.arb2.w(regs.ARB2_MSGVAL | dir | (msg.ID<<2)&0x1FFF)
		if1.msk2.w(regs.MSK2_MDIR | (idStdMask<<2)&0x1FFF)
	}

	if1.mctrl.w(regs.MCTRL_UMASK | regs.MCTRL_TXRQST | regs.MCTRL_EOB | uint32(msg.Len)&0xF)

	if1.da1.w(pack16(msg.Data[0], msg.Data[1]))
	if1.da2.w(pack16(msg.Data[2], msg.Data[3]))
	if1.db1.w(pack16(msg.Data[4], msg.Data[5]))
	if1.db2.w(pack16(msg.Data[6], msg.Data[7]))

	err = dev.transfer(if1,
		regs.CMDMSK_WR|regs.CMDMSK_MASK|regs.CMDMSK_ARB|regs.CMDMSK_CTRL|
			regs.CMDMSK_TXRQST|regs.CMDMSK_DATA_A|regs.CMDMSK_DATA_B,
		slot,
	)
	if err != nil {
		return err
	}

	// TXOK is latched: the controller never clears it.
	dev.regs.can.stat.clr(regs.STAT_TXOK)

	if dev.err != nil {
		return fmt.Errorf("can: could not transmit message: %w", dev.err)
	}
	return nil
}

// Read fetches the frame held by message object handle. A zero handle
// scans the receive pool for the first mailbox with new data; when no
// mailbox has any, Read fails with ErrNoMsg.
func (dev *Device) Read(handle int) (Message, error) {
	var msg Message

	dev.enable()

	if handle == 0 {
		newData := dev.regs.can.nd1.r() | dev.regs.can.nd2.r()<<16
		for i := 0; i < rxMsgObjs; i++ {
			if newData&(1<<i) != 0 {
				handle = i + 1
				break
			}
		}
	}

	if handle < 1 || handle > numMsgObjs {
		if dev.err != nil {
			return msg, fmt.Errorf("can: could not scan receive mailboxes: %w", dev.err)
		}
		return msg, ErrNoMsg
	}

	if2 := &dev.regs.can.if2
	err := dev.waitIF(if2)
	if err != nil {
		return msg, fmt.Errorf("can: message interface 2 not available: %w", err)
	}

	err = dev.transfer(if2,
		regs.CMDMSK_RD|regs.CMDMSK_MASK|regs.CMDMSK_ARB|regs.CMDMSK_CTRL|
			regs.CMDMSK_CLRINTPND|regs.CMDMSK_NEWDAT|
			regs.CMDMSK_DATA_A|regs.CMDMSK_DATA_B,
		handle,
	)
	if err != nil {
		return msg, err
	}

	arb2 := if2.arb2.r()
	switch {
	case arb2&regs.ARB2_XTD != 0:
		msg.Format = Extended
		msg.ID = (arb2 & 0x1FFF) << 16
		msg.ID |= if2.arb1.r() & 0xFFFF
	default:
		msg.Format = Standard
		msg.ID = (arb2 & 0x1FFF) >> 2
	}

	// On a receive object the direction bit carries the remote peer's
	// request: the sense is the opposite of the transmit path.
	switch {
	case arb2&regs.ARB2_DIR != 0:
		msg.Type = Remote
	default:
		msg.Type = Data
	}

	dlc := if2.mctrl.r() & 0xF
	if dlc > dlcMax {
		dlc = dlcMax
	}
	msg.Len = uint8(dlc)

	var (
		da1 = if2.da1.r()
		da2 = if2.da2.r()
		db1 = if2.db1.r()
		db2 = if2.db2.r()
	)
	msg.Data[0] = byte(da1)
	msg.Data[1] = byte(da1 >> 8)
	msg.Data[2] = byte(da2)
	msg.Data[3] = byte(da2 >> 8)
	msg.Data[4] = byte(db1)
	msg.Data[5] = byte(db1 >> 8)
	msg.Data[6] = byte(db2)
	msg.Data[7] = byte(db2 >> 8)

	// RXOK is latched: the controller never clears it.
	dev.regs.can.stat.clr(regs.STAT_RXOK)

	if dev.err != nil {
		return Message{}, fmt.Errorf("can: could not read message object %d: %w", handle, dev.err)
	}
	return msg, nil
}

func pack16(lo, hi byte) uint32 {
	return uint32(hi)<<8 | uint32(lo)
}
