// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/go-lpc/ccan/can/internal/regs"
)

const (
	blkCAN = iota
	blkSYS
	blkSWM
)

// msgSlot is one message object of the fake controller's message RAM.
type msgSlot struct {
	msk1  uint32
	msk2  uint32
	arb1  uint32
	arb2  uint32
	mctrl uint32
	da1   uint32
	da2   uint32
	db1   uint32
	db2   uint32
}

// fakeChip is a behavioral model of the C_CAN controller together with
// the SYSCON and SWM register files. Writes to a CMDREQ register run
// the requested message-interface transfer at once; a transmit request
// completes immediately and, in loopback mode, is matched against the
// receive message objects with the direction sense inverted, the way
// the controller presents a received frame.
type fakeChip struct {
	mu    sync.Mutex
	stuck bool // keep the message interfaces busy forever
	nexec int  // message-interface transfers run so far

	can map[int64]uint32
	sys map[int64]uint32
	swm map[int64]uint32

	slots [numMsgObjs + 1]msgSlot // 1-based
}

func newFakeChip() *fakeChip {
	chip := &fakeChip{
		can: make(map[int64]uint32),
		sys: make(map[int64]uint32),
		swm: make(map[int64]uint32),
	}
	// The switch matrix resets to "no routing".
	chip.swm[regs.PINASSIGN6] = 0xFFFFFFFF
	// The controller wakes up in initialization mode.
	chip.can[regs.CANCNTL] = regs.CNTL_INIT
	return chip
}

type fakeView struct {
	chip *fakeChip
	blk  int
}

func (chip *fakeChip) view(blk int) *fakeView {
	return &fakeView{chip: chip, blk: blk}
}

func (v *fakeView) ReadAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("fake: invalid read size %d", len(p))
	}
	v.chip.mu.Lock()
	defer v.chip.mu.Unlock()

	binary.LittleEndian.PutUint32(p, v.chip.read(v.blk, off))
	return 4, nil
}

func (v *fakeView) WriteAt(p []byte, off int64) (int, error) {
	if len(p) != 4 {
		return 0, fmt.Errorf("fake: invalid write size %d", len(p))
	}
	v.chip.mu.Lock()
	defer v.chip.mu.Unlock()

	v.chip.write(v.blk, off, binary.LittleEndian.Uint32(p))
	return 4, nil
}

func (chip *fakeChip) read(blk int, off int64) uint32 {
	switch blk {
	case blkSYS:
		return chip.sys[off]
	case blkSWM:
		return chip.swm[off]
	}

	switch off {
	case regs.CANIF1_CMDREQ, regs.CANIF2_CMDREQ:
		if chip.stuck {
			return chip.can[off] | regs.CMDREQ_BUSY
		}
	case regs.CANTXREQ1:
		return chip.bitmap(regs.MCTRL_TXRQST) & 0xFFFF
	case regs.CANTXREQ2:
		return chip.bitmap(regs.MCTRL_TXRQST) >> 16
	case regs.CANND1:
		return chip.bitmap(regs.MCTRL_NEWDAT) & 0xFFFF
	case regs.CANND2:
		return chip.bitmap(regs.MCTRL_NEWDAT) >> 16
	case regs.CANMSGV1:
		return chip.msgval() & 0xFFFF
	case regs.CANMSGV2:
		return chip.msgval() >> 16
	}
	return chip.can[off]
}

func (chip *fakeChip) write(blk int, off int64, v uint32) {
	switch blk {
	case blkSYS:
		chip.sys[off] = v
		return
	case blkSWM:
		chip.swm[off] = v
		return
	}

	chip.can[off] = v
	switch off {
	case regs.CANIF1_CMDREQ:
		if !chip.stuck {
			chip.exec(regs.CANIF1_CMDREQ, int(v&0x3F))
		}
	case regs.CANIF2_CMDREQ:
		if !chip.stuck {
			chip.exec(regs.CANIF2_CMDREQ, int(v&0x3F))
		}
	}
}

// bitmap assembles the 32-bit status bitmap of the given MCTRL bit,
// message object i at bit i-1.
func (chip *fakeChip) bitmap(bit uint32) uint32 {
	var v uint32
	for i := 1; i <= numMsgObjs; i++ {
		if chip.slots[i].mctrl&bit != 0 {
			v |= 1 << (i - 1)
		}
	}
	return v
}

func (chip *fakeChip) msgval() uint32 {
	var v uint32
	for i := 1; i <= numMsgObjs; i++ {
		if chip.slots[i].arb2&regs.ARB2_MSGVAL != 0 {
			v |= 1 << (i - 1)
		}
	}
	return v
}

// exec runs one message-interface transfer, base naming the CMDREQ
// offset of the interface whose staged registers drive it.
func (chip *fakeChip) exec(base int64, slot int) {
	chip.nexec++
	if slot < 1 || slot > numMsgObjs {
		return
	}

	var (
		m      = chip.can
		cmdmsk = m[base+0x04]
		s      = &chip.slots[slot]
	)
	if cmdmsk&regs.CMDMSK_WR != 0 {
		if cmdmsk&regs.CMDMSK_MASK != 0 {
			s.msk1, s.msk2 = m[base+0x08], m[base+0x0C]
		}
		if cmdmsk&regs.CMDMSK_ARB != 0 {
			s.arb1, s.arb2 = m[base+0x10], m[base+0x14]
		}
		if cmdmsk&regs.CMDMSK_CTRL != 0 {
			s.mctrl = m[base+0x18]
		}
		if cmdmsk&regs.CMDMSK_DATA_A != 0 {
			s.da1, s.da2 = m[base+0x1C], m[base+0x20]
		}
		if cmdmsk&regs.CMDMSK_DATA_B != 0 {
			s.db1, s.db2 = m[base+0x24], m[base+0x28]
		}
		if cmdmsk&regs.CMDMSK_TXRQST != 0 {
			s.mctrl |= regs.MCTRL_TXRQST
			chip.transmit(slot)
		}
		return
	}

	if cmdmsk&regs.CMDMSK_MASK != 0 {
		m[base+0x08], m[base+0x0C] = s.msk1, s.msk2
	}
	if cmdmsk&regs.CMDMSK_ARB != 0 {
		m[base+0x10], m[base+0x14] = s.arb1, s.arb2
	}
	if cmdmsk&regs.CMDMSK_CTRL != 0 {
		m[base+0x18] = s.mctrl
	}
	if cmdmsk&regs.CMDMSK_NEWDAT != 0 {
		s.mctrl &^= regs.MCTRL_NEWDAT
	}
	if cmdmsk&regs.CMDMSK_CLRINTPND != 0 {
		s.mctrl &^= regs.MCTRL_INTPND
	}
	if cmdmsk&regs.CMDMSK_DATA_A != 0 {
		m[base+0x1C], m[base+0x20] = s.da1, s.da2
	}
	if cmdmsk&regs.CMDMSK_DATA_B != 0 {
		m[base+0x24], m[base+0x28] = s.db1, s.db2
	}
}

// transmit completes the transmission pending on slot. In loopback
// mode the frame is matched against the receive message objects.
func (chip *fakeChip) transmit(slot int) {
	s := &chip.slots[slot]
	s.mctrl &^= regs.MCTRL_TXRQST
	chip.can[regs.CANSTAT] |= regs.STAT_TXOK

	lback := chip.can[regs.CANCNTL]&regs.CNTL_TEST != 0 &&
		chip.can[regs.CANTEST]&regs.TEST_LBACK != 0
	if !lback {
		return
	}
	chip.loopback(*s)
}

// loopback delivers the frame held in tx to the lowest-numbered
// matching receive message object, if any. The received frame carries
// the inverse direction bit: a transmitted data frame (DIR=1) is
// received with DIR clear, a transmitted remote request (DIR=0) with
// DIR set.
func (chip *fakeChip) loopback(tx msgSlot) {
	for i := 1; i <= rxMsgObjs; i++ {
		rx := &chip.slots[i]
		if rx.arb2&regs.ARB2_MSGVAL == 0 {
			continue
		}
		if !chip.match(tx, *rx) {
			continue
		}

		arb2 := tx.arb2 | regs.ARB2_MSGVAL
		switch {
		case tx.arb2&regs.ARB2_DIR != 0:
			arb2 &^= regs.ARB2_DIR
		default:
			arb2 |= regs.ARB2_DIR
		}

		rx.arb1 = tx.arb1
		rx.arb2 = arb2
		rx.mctrl = rx.mctrl&^0xF | tx.mctrl&0xF | regs.MCTRL_NEWDAT
		rx.da1, rx.da2 = tx.da1, tx.da2
		rx.db1, rx.db2 = tx.db1, tx.db2

		chip.can[regs.CANSTAT] |= regs.STAT_RXOK
		chip.can[regs.CANINT] = regs.INT_STATUS
		return
	}
}

func (chip *fakeChip) match(tx, rx msgSlot) bool {
	if rx.mctrl&regs.MCTRL_UMASK == 0 {
		return (tx.arb2^rx.arb2)&(regs.ARB2_XTD|0x1FFF) == 0 &&
			(tx.arb1^rx.arb1)&0xFFFF == 0
	}
	if rx.msk2&regs.MSK2_MXTD != 0 && (tx.arb2^rx.arb2)&regs.ARB2_XTD != 0 {
		return false
	}
	if tx.arb2&regs.ARB2_XTD != 0 && rx.arb2&regs.ARB2_XTD != 0 {
		var (
			txid = (tx.arb2&0x1FFF)<<16 | tx.arb1&0xFFFF
			rxid = (rx.arb2&0x1FFF)<<16 | rx.arb1&0xFFFF
			mask = (rx.msk2&0x1FFF)<<16 | rx.msk1&0xFFFF
		)
		return (txid^rxid)&mask == 0
	}
	return (tx.arb2^rx.arb2)&rx.msk2&0x1FFF == 0
}

// testDevice binds a Device to chip without going through /dev/mem.
func testDevice(t *testing.T, chip *fakeChip, opts ...Option) *Device {
	t.Helper()

	dev := &Device{cfg: newConfig()}
	dev.cfg.msg = log.New(io.Discard, "can: ", 0)
	dev.cfg.poll.max = 100
	dev.cfg.poll.sleep = 0
	for _, opt := range opts {
		opt(&dev.cfg)
	}
	dev.msg = dev.cfg.msg
	dev.bind(chip.view(blkCAN), chip.view(blkSYS), chip.view(blkSWM))

	err := dev.init(P0_18, P0_9)
	if err != nil {
		t.Fatalf("could not initialize device: %+v", err)
	}
	return dev
}
