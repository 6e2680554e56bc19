// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command can-dump prints the frames received on the on-board C_CAN
// controller, one line per frame.
package main // import "github.com/go-lpc/ccan/cmd/can-dump"

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/ccan/can"
)

func main() {
	log.SetPrefix("can-dump: ")
	log.SetFlags(0)

	var (
		rd     = flag.Uint("rd", uint(can.P0_11), "pin CAN0 RD is routed to")
		td     = flag.Uint("td", uint(can.P0_31), "pin CAN0 TD is routed to")
		rate   = flag.Uint("rate", 100000, "bus bit rate, in Hz")
		silent = flag.Bool("silent", false, "listen without acknowledging frames")
	)

	flag.Parse()

	err := run(can.Pin(*rd), can.Pin(*td), uint32(*rate), *silent)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(rd, td can.Pin, rate uint32, silent bool) error {
	dev, err := can.New(rd, td, can.WithBitRate(rate))
	if err != nil {
		return fmt.Errorf("could not open CAN device: %w", err)
	}
	defer dev.Close()

	if silent {
		err = dev.SetMode(can.ModeSilent)
		if err != nil {
			return fmt.Errorf("could not enter silent mode: %w", err)
		}
	}

	for {
		msg, err := dev.Read(0)
		switch {
		case err == nil:
			fmt.Printf("%s  id=0x%-8x %-8v %-6v [%d] % x\n",
				time.Now().UTC().Format("15:04:05.000"),
				msg.ID, msg.Format, msg.Type, msg.Len, msg.Data[:msg.Len],
			)
		case errors.Is(err, can.ErrNoMsg):
			time.Sleep(1 * time.Millisecond)
		default:
			return fmt.Errorf("could not read frame: %w", err)
		}
	}
}
