// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"github.com/go-lpc/ccan/can/internal/regs"
)

// Filter programs an acceptance filter into message object handle.
// A zero handle auto-allocates the first message object whose validity
// bit is clear; the returned handle is 0 when the pool is exhausted
// and no hardware is touched. Handles outside 1..32 are returned
// unchanged, also without touching the hardware. Callers picking their
// own handle are responsible for staying inside the receive partition
// (1..31).
func (dev *Device) Filter(id, mask uint32, format Format, handle int) (int, error) {
	if handle == 0 {
		msgval := dev.regs.can.msgv1.r() | dev.regs.can.msgv2.r()<<16

		// Find first free message object.
		for i := 0; i < numMsgObjs; i++ {
			if msgval&(1<<i) == 0 {
				handle = i + 1
				break
			}
		}
	}

	if handle < 1 || handle > numMsgObjs {
		return handle, dev.err
	}

	if1 := &dev.regs.can.if1
	switch format {
	case Extended:
		// Mark message valid, extended frame, set identifier and mask.
		if1.arb1.w(id & 0xFFFF)
		if1.arb2.w(regs.ARB2_MSGVAL | regs.ARB2_XTD | (id>>16)&0x1FFF)
		if1.msk1.w(mask & 0xFFFF)
		if1.msk2.w(regs.MSK2_MXTD | (mask>>16)&0x1FFF)
	default:
		// Mark message valid, set identifier and mask.
		if1.arb2.w(regs.ARB2_MSGVAL | (id<<2)&0x1FFF)
		if1.msk2.w((mask << 2) & 0x1FFF)
	}

	// Use mask, single message object, maximum DLC.
	if1.mctrl.w(regs.MCTRL_UMASK | regs.MCTRL_EOB | dlcMax&0xF)

	err := dev.transfer(if1,
		regs.CMDMSK_WR|regs.CMDMSK_MASK|regs.CMDMSK_ARB|regs.CMDMSK_CTRL,
		handle,
	)
	if err != nil {
		return handle, err
	}
	return handle, nil
}
