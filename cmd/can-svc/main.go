// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command can-svc exposes the on-board C_CAN controller over a TCP
// control socket, one JSON request/reply pair per command.
package main // import "github.com/go-lpc/ccan/cmd/can-svc"

import (
	"flag"
	"log"

	"github.com/go-lpc/ccan/can"
)

func main() {
	log.SetPrefix("can-svc: ")
	log.SetFlags(0)

	var (
		addr = flag.String("addr", ":8867", "[ip]:port to listen on")
		rd   = flag.Uint("rd", uint(can.P0_11), "pin CAN0 RD is routed to")
		td   = flag.Uint("td", uint(can.P0_31), "pin CAN0 TD is routed to")
		rate = flag.Uint("rate", 100000, "bus bit rate, in Hz")
	)

	flag.Parse()

	run(*addr, can.Pin(*rd), can.Pin(*td), uint32(*rate))
}

func run(addr string, rd, td can.Pin, rate uint32) {
	dev, err := can.New(rd, td, can.WithBitRate(rate))
	if err != nil {
		log.Fatalf("could not open CAN device: %+v", err)
	}
	defer dev.Close()

	log.Printf("running can-svc server on %q (rd=%v, td=%v, rate=%d Hz)...", addr, rd, td, rate)
	err = can.Serve(addr, dev)
	if err != nil {
		log.Fatalf("could not serve %q: %+v", addr, err)
	}
}
