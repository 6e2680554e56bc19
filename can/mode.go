// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"fmt"

	"github.com/go-lpc/ccan/can/internal/regs"
)

// SetMode switches the controller operating mode. ModeTestGlobal is
// not supported by the C_CAN controller: requesting it fails and
// leaves every mode register untouched.
func (dev *Device) SetMode(mode Mode) error {
	var (
		cntl = dev.regs.can.cntl
		test = dev.regs.can.test
	)
	switch mode {
	case ModeReset:
		cntl.clr(regs.CNTL_TEST)
		dev.disable()
	case ModeNormal:
		cntl.clr(regs.CNTL_TEST)
		dev.enable()
	case ModeSilent:
		cntl.set(regs.CNTL_TEST)
		test.set(regs.TEST_SILENT)
		test.clr(regs.TEST_LBACK)
	case ModeTestLocal:
		cntl.set(regs.CNTL_TEST)
		test.clr(regs.TEST_SILENT)
		test.set(regs.TEST_LBACK)
	case ModeTestSilent:
		cntl.set(regs.CNTL_TEST)
		test.set(regs.TEST_LBACK | regs.TEST_SILENT)
	default:
		return fmt.Errorf("can: unsupported mode %v", mode)
	}

	if dev.err != nil {
		return fmt.Errorf("can: could not set mode %v: %w", mode, dev.err)
	}
	return nil
}
