// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import "fmt"

// Pin names an LPC15xx GPIO pin, as used by the switch matrix.
type Pin uint8

const (
	P0_0 Pin = iota
	P0_1
	P0_2
	P0_3
	P0_4
	P0_5
	P0_6
	P0_7
	P0_8
	P0_9
	P0_10
	P0_11
	P0_12
	P0_13
	P0_14
	P0_15
	P0_16
	P0_17
	P0_18
	P0_19
	P0_20
	P0_21
	P0_22
	P0_23
	P0_24
	P0_25
	P0_26
	P0_27
	P0_28
	P0_29
	P0_30
	P0_31
	P1_0
	P1_1
	P1_2
	P1_3
	P1_4
	P1_5
	P1_6
	P1_7
	P1_8
	P1_9
	P1_10
	P1_11
	P1_12
	P1_13
	P1_14
	P1_15
	P1_16
	P1_17
	P1_18
	P1_19
	P1_20
	P1_21
	P1_22
	P1_23
	P1_24
	P1_25
	P1_26
	P1_27
	P1_28
	P1_29
	P1_30
	P1_31
	P2_0
	P2_1
	P2_2
	P2_3
	P2_4
	P2_5
	P2_6
	P2_7
	P2_8
	P2_9
	P2_10
	P2_11
	P2_12
)

func (p Pin) String() string {
	return fmt.Sprintf("P%d_%d", p/32, p%32)
}

// PinMapping associates a pin with a CAN peripheral instance and a
// switch-matrix configuration.
type PinMapping struct {
	Pin      Pin
	Instance uint32
	Config   uint32
}

// PinMapRD enumerates the pins the switch matrix can route CAN0 RD to.
// The table is informational, for tooling: the switch matrix places no
// hard restriction on movable functions.
func PinMapRD() []PinMapping {
	return canPins()
}

// PinMapTD enumerates the pins the switch matrix can route CAN0 TD to.
func PinMapTD() []PinMapping {
	return canPins()
}

func canPins() []PinMapping {
	pins := make([]PinMapping, 0, int(P2_12)+1)
	for p := P0_0; p <= P2_12; p++ {
		pins = append(pins, PinMapping{Pin: p})
	}
	return pins
}
