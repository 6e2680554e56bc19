// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

// timingPts has the sampling points as close to 75% as possible,
// indexed by the number of time quanta per bit minus 2. The first
// value is TSEG1, the second TSEG2.
var timingPts = [23][2]uint32{
	{0x0, 0x0}, // 2,  50%
	{0x1, 0x0}, // 3,  67%
	{0x2, 0x0}, // 4,  75%
	{0x3, 0x0}, // 5,  80%
	{0x3, 0x1}, // 6,  67%
	{0x4, 0x1}, // 7,  71%
	{0x5, 0x1}, // 8,  75%
	{0x6, 0x1}, // 9,  78%
	{0x6, 0x2}, // 10, 70%
	{0x7, 0x2}, // 11, 73%
	{0x8, 0x2}, // 12, 75%
	{0x9, 0x2}, // 13, 77%
	{0x9, 0x3}, // 14, 71%
	{0xA, 0x3}, // 15, 73%
	{0xB, 0x3}, // 16, 75%
	{0xC, 0x3}, // 17, 76%
	{0xD, 0x3}, // 18, 78%
	{0xD, 0x4}, // 19, 74%
	{0xE, 0x4}, // 20, 75%
	{0xF, 0x4}, // 21, 76%
	{0xF, 0x5}, // 22, 73%
	{0xF, 0x6}, // 23, 70%
	{0xF, 0x7}, // 24, 67%
}

// bitTiming derives the CANBT timing word (with the clock divider in
// bits 19:16) for the requested bit rate at the given controller clock.
//
// The bit period must span an integer number of controller clock
// cycles: the search walks prescaler values up from bitwidth/24 and,
// within each prescaler, quanta counts from 22 down, and keeps the
// first pair with (bits+3)*(brp+1) == bitwidth. Fractional bit widths
// have no solution and yield 0; callers must not program the hardware
// with a zero word.
func bitTiming(sclk, rate uint32, sjw uint8) uint32 {
	if rate == 0 || rate > sclk {
		return 0
	}

	var (
		bitwidth = sclk / rate

		brp  = bitwidth / 24
		bits uint32
		hit  bool
	)
	for !hit && brp < bitwidth/4 {
		brp++
		for bits = 22; bits > 0; bits-- {
			if (bits+3)*(brp+1) == bitwidth {
				hit = true
				break
			}
		}
	}

	if !hit {
		return 0
	}

	const clkdiv = 0
	btr := (timingPts[bits][1]&0x7)<<12 |
		(timingPts[bits][0]&0xF)<<8 |
		(uint32(sjw)&0x3)<<6 |
		brp&0x3F
	return btr | clkdiv<<16
}
