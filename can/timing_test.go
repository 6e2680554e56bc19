// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"
	"testing"
)

func TestBitTiming(t *testing.T) {
	const sclk = 72000000 // LPC15xx system clock

	for _, tc := range []struct {
		rate uint32
		sjw  uint8
		want uint32
	}{
		// brp=35, 20 quanta: TSEG1=0xD, TSEG2=0x4.
		{rate: 100000, sjw: 1, want: 0x4D63},
		// brp=31, 18 quanta: TSEG1=0xC, TSEG2=0x3.
		{rate: 125000, sjw: 1, want: 0x3C5F},
		// brp=7, 18 quanta.
		{rate: 500000, sjw: 1, want: 0x3C47},
		// brp=5, 12 quanta: TSEG1=0x7, TSEG2=0x2.
		{rate: 1000000, sjw: 1, want: 0x2745},
		{rate: 500000, sjw: 2, want: 0x3C87},
		// 71 clocks per bit: prime, no quanta partition.
		{rate: 1000001, sjw: 1, want: 0},
		{rate: 0, sjw: 1, want: 0},
		// Faster than the controller clock.
		{rate: sclk + 1, sjw: 1, want: 0},
	} {
		t.Run(fmt.Sprintf("%d-Hz", tc.rate), func(t *testing.T) {
			got := bitTiming(sclk, tc.rate, tc.sjw)
			if got != tc.want {
				t.Fatalf("invalid timing word: got=0x%x, want=0x%x", got, tc.want)
			}
		})
	}
}

func TestBitTimingConsistency(t *testing.T) {
	const sclk = 72000000

	for _, rate := range []uint32{100000, 125000, 250000, 500000, 800000, 1000000} {
		btr := bitTiming(sclk, rate, 1)
		if btr == 0 {
			t.Fatalf("rate=%d Hz: no timing solution", rate)
		}

		var (
			brp    = btr & 0x3F
			tseg1  = (btr >> 8) & 0xF
			tseg2  = (btr >> 12) & 0x7
			quanta = 1 + (tseg1 + 1) + (tseg2 + 1)
		)
		if got, want := (brp+1)*quanta*rate, uint32(sclk); got != want {
			t.Fatalf("rate=%d Hz: bit width mismatch: got=%d, want=%d", rate, got, want)
		}
	}
}
