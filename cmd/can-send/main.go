// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command can-send transmits one frame on the on-board C_CAN
// controller.
//
// Usage: can-send [OPTIONS] [HEX-PAYLOAD]
//
// Example:
//
//	$> can-send -id 0x123 cafedeca
//	$> can-send -id 0x1fffffff -ext -rate 500000 deadbeef
//	$> can-send -id 0x042 -rtr
package main // import "github.com/go-lpc/ccan/cmd/can-send"

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-lpc/ccan/can"
)

func main() {
	log.SetPrefix("can-send: ")
	log.SetFlags(0)

	var (
		rd   = flag.Uint("rd", uint(can.P0_11), "pin CAN0 RD is routed to")
		td   = flag.Uint("td", uint(can.P0_31), "pin CAN0 TD is routed to")
		rate = flag.Uint("rate", 100000, "bus bit rate, in Hz")
		id   = flag.Uint("id", 0, "frame identifier")
		ext  = flag.Bool("ext", false, "use the 29-bit extended identifier format")
		rtr  = flag.Bool("rtr", false, "send a remote transmission request")
		wait = flag.Duration("timeout", 1*time.Second, "how long to retry a busy transmit mailbox")
	)

	flag.Parse()

	msg := can.Message{
		ID:     uint32(*id),
		Format: can.Standard,
		Type:   can.Data,
	}
	if *ext {
		msg.Format = can.Extended
	}
	if *rtr {
		msg.Type = can.Remote
	}
	if flag.NArg() > 0 {
		raw, err := hex.DecodeString(strings.TrimPrefix(flag.Arg(0), "0x"))
		if err != nil {
			log.Fatalf("could not decode payload %q: %+v", flag.Arg(0), err)
		}
		if len(raw) > len(msg.Data) {
			log.Fatalf("payload too long: %d bytes", len(raw))
		}
		msg.Len = uint8(len(raw))
		copy(msg.Data[:], raw)
	}

	err := run(can.Pin(*rd), can.Pin(*td), uint32(*rate), msg, *wait)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(rd, td can.Pin, rate uint32, msg can.Message, wait time.Duration) error {
	dev, err := can.New(rd, td, can.WithBitRate(rate))
	if err != nil {
		return fmt.Errorf("could not open CAN device: %w", err)
	}
	defer dev.Close()

	deadline := time.Now().Add(wait)
	for {
		err = dev.Write(msg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, can.ErrTxBusy):
			if time.Now().After(deadline) {
				return fmt.Errorf("could not send frame: %w", err)
			}
			time.Sleep(1 * time.Millisecond)
		default:
			return fmt.Errorf("could not send frame: %w", err)
		}
	}
}
