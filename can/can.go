// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package can drives the Bosch C_CAN controller of NXP LPC15xx
// micro-controllers.
//
// The controller owns a table of 32 hardware message objects; the
// driver partitions it into 31 receive mailboxes (slots 1..31) and one
// transmit mailbox (slot 32).  Message objects are only ever accessed
// through the two hardware message interfaces: interface 1 is reserved
// for configuration and transmit, interface 2 for receive, so the two
// paths never contend for an in-flight register transfer.
package can // import "github.com/go-lpc/ccan/can"

import (
	"errors"
	"fmt"
)

const (
	numMsgObjs = 32 // hardware message objects, numbered 1..32
	rxMsgObjs  = 31 // message objects reserved for reception
	txMsgObjs  = 1  // message objects reserved for transmission

	dlcMax = 8

	idStdMask = 0x07FF
	idExtMask = 0x1FFFFFFF
)

var (
	// ErrNoMsg is returned by Read when no mailbox holds new data.
	ErrNoMsg = errors.New("can: no message available")

	// ErrTxBusy is returned by Write when every transmit mailbox has a
	// transmission pending.
	ErrTxBusy = errors.New("can: transmit mailbox busy")

	// ErrTimeout is returned when the controller does not complete a
	// register transfer within the configured poll budget.
	ErrTimeout = errors.New("can: hardware timeout")

	// ErrNoTiming is returned by SetFrequency when no integer
	// prescaler/segment configuration reproduces the requested bit
	// rate exactly.
	ErrNoTiming = errors.New("can: no exact bit-timing solution")
)

// Format is the identifier format of a CAN frame.
type Format uint8

const (
	Standard Format = iota // 11-bit identifier
	Extended               // 29-bit identifier
)

func (f Format) String() string {
	switch f {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Type is the kind of a CAN frame.
type Type uint8

const (
	Data   Type = iota // data frame
	Remote             // remote transmission request
)

func (t Type) String() string {
	switch t {
	case Data:
		return "data"
	case Remote:
		return "remote"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Message is one CAN frame.
type Message struct {
	ID     uint32 // 11- or 29-bit identifier, depending on Format
	Format Format
	Type   Type
	Len    uint8 // data length code, 0..8
	Data   [8]byte
}

// Mode is an operating mode of the controller.
type Mode uint8

const (
	ModeReset      Mode = iota // controller disabled
	ModeNormal                 // normal operation
	ModeSilent                 // listen-only, TX pin held recessive
	ModeTestLocal              // internal loopback, bus unaffected
	ModeTestSilent             // loopback combined with silent
	ModeTestGlobal             // not supported by this controller
)

func (m Mode) String() string {
	switch m {
	case ModeReset:
		return "reset"
	case ModeNormal:
		return "normal"
	case ModeSilent:
		return "silent"
	case ModeTestLocal:
		return "test-local"
	case ModeTestSilent:
		return "test-silent"
	case ModeTestGlobal:
		return "test-global"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Event is a controller event category reported through the interrupt
// dispatcher.
type Event uint8

const (
	EventRx      Event = iota // a message was received
	EventTx                   // a message was transmitted
	EventWarning              // error-warning threshold reached
	EventPassive              // controller went error-passive
	EventBusOff               // controller went bus-off
)

func (ev Event) String() string {
	switch ev {
	case EventRx:
		return "rx"
	case EventTx:
		return "tx"
	case EventWarning:
		return "error-warning"
	case EventPassive:
		return "error-passive"
	case EventBusOff:
		return "bus-off"
	}
	return fmt.Sprintf("Event(%d)", uint8(ev))
}
