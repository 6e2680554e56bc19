// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs holds the memory map of the LPC15xx C_CAN controller
// and of the SYSCON/SWM register files the driver needs to touch.
//
// Offsets are in bytes from the base of the corresponding register
// file (UM10736).
package regs // import "github.com/go-lpc/ccan/can/internal/regs"

// Register file bases and spans.
const (
	CAN_BASE = 0x400F0000
	CAN_SPAN = 0x1000

	SYSCON_BASE = 0x40074000
	SYSCON_SPAN = 0x1000

	SWM_BASE = 0x40038000
	SWM_SPAN = 0x1000
)

// C_CAN registers.
const (
	CANCNTL = 0x000
	CANSTAT = 0x004
	CANEC   = 0x008
	CANBT   = 0x00C
	CANINT  = 0x010
	CANTEST = 0x014
	CANBRPE = 0x018

	CANIF1_CMDREQ = 0x020
	CANIF1_CMDMSK = 0x024
	CANIF1_MSK1   = 0x028
	CANIF1_MSK2   = 0x02C
	CANIF1_ARB1   = 0x030
	CANIF1_ARB2   = 0x034
	CANIF1_MCTRL  = 0x038
	CANIF1_DA1    = 0x03C
	CANIF1_DA2    = 0x040
	CANIF1_DB1    = 0x044
	CANIF1_DB2    = 0x048

	CANIF2_CMDREQ = 0x080
	CANIF2_CMDMSK = 0x084
	CANIF2_MSK1   = 0x088
	CANIF2_MSK2   = 0x08C
	CANIF2_ARB1   = 0x090
	CANIF2_ARB2   = 0x094
	CANIF2_MCTRL  = 0x098
	CANIF2_DA1    = 0x09C
	CANIF2_DA2    = 0x0A0
	CANIF2_DB1    = 0x0A4
	CANIF2_DB2    = 0x0A8

	CANTXREQ1 = 0x100
	CANTXREQ2 = 0x104
	CANND1    = 0x120
	CANND2    = 0x124
	CANMSGV1  = 0x160
	CANMSGV2  = 0x164
	CANCLKDIV = 0x180
)

// CANCNTL bits.
const (
	CNTL_INIT = 1 << 0 // initialization mode
	CNTL_IE   = 1 << 1 // module interrupt enable
	CNTL_SIE  = 1 << 2 // status-change interrupt enable
	CNTL_EIE  = 1 << 3 // error interrupt enable
	CNTL_DAR  = 1 << 5 // disable automatic retransmission
	CNTL_CCE  = 1 << 6 // configuration change enable
	CNTL_TEST = 1 << 7 // test mode enable
)

// CANSTAT bits. TXOK and RXOK are latched: the controller only ever
// sets them, the CPU has to clear them.
const (
	STAT_TXOK  = 1 << 3
	STAT_RXOK  = 1 << 4
	STAT_EPASS = 1 << 5
	STAT_EWARN = 1 << 6
	STAT_BOFF  = 1 << 7
)

// CANTEST bits.
const (
	TEST_BASIC    = 1 << 2
	TEST_SILENT   = 1 << 3
	TEST_LBACK    = 1 << 4
	TEST_TX_MASK  = 0x0060
	TEST_TX_SHIFT = 5
	TEST_RX       = 1 << 7
)

// Message interface arbitration, mask and control bits.
const (
	ARB2_DIR    = 1 << 13
	ARB2_XTD    = 1 << 14
	ARB2_MSGVAL = 1 << 15

	MSK2_MDIR = 1 << 14
	MSK2_MXTD = 1 << 15

	MCTRL_EOB    = 1 << 7
	MCTRL_TXRQST = 1 << 8
	MCTRL_RMTEN  = 1 << 9
	MCTRL_RXIE   = 1 << 10
	MCTRL_TXIE   = 1 << 11
	MCTRL_UMASK  = 1 << 12
	MCTRL_INTPND = 1 << 13
	MCTRL_MSGLST = 1 << 14
	MCTRL_NEWDAT = 1 << 15
)

// Message interface command mask and request bits. NEWDAT and TXRQST
// share a bit: the former applies to read transfers, the latter to
// write transfers.
const (
	CMDMSK_DATA_B    = 1 << 0
	CMDMSK_DATA_A    = 1 << 1
	CMDMSK_TXRQST    = 1 << 2
	CMDMSK_NEWDAT    = 1 << 2
	CMDMSK_CLRINTPND = 1 << 3
	CMDMSK_CTRL      = 1 << 4
	CMDMSK_ARB       = 1 << 5
	CMDMSK_MASK      = 1 << 6
	CMDMSK_WR        = 1 << 7
	CMDMSK_RD        = 0 << 7

	CMDREQ_BUSY = 1 << 15
)

// CANINT value flagging a status interrupt (as opposed to a
// message-object interrupt).
const INT_STATUS = 0x8000

// SYSCON registers and the C_CAN bit shared by clock-control and
// peripheral-reset registers.
const (
	PRESETCTRL1    = 0x048
	SYSAHBCLKCTRL1 = 0x0C8

	SYSCTL_CAN = 1 << 7
)

// SWM registers. PINASSIGN6 routes CAN0 RD (bits 23:16) and TD
// (bits 15:8) to movable pins.
const (
	PINASSIGN6 = 0x018

	PINASSIGN6_CAN_MASK = 0x00FFFF00
)
