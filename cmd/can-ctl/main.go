// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command can-ctl is an interactive shell to a running can-svc
// instance.
//
// Example:
//
//	$> can-ctl -addr 192.168.0.30:8867
//	can> mode test-local
//	mode test-local
//	can> send 0x123 std data cafedeca
//	sent id=0x123 standard data [4] ca fe de ca
//	can> recv
//	id=0x123 standard data [4] ca fe de ca
//	can> quit
//	bye
package main // import "github.com/go-lpc/ccan/cmd/can-ctl"

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/peterh/liner"

	"github.com/go-lpc/ccan/can"
)

func main() {
	log.SetPrefix("can-ctl: ")
	log.SetFlags(0)

	addr := flag.String("addr", "localhost:8867", "address of the can-svc control socket")

	flag.Parse()

	err := run(*addr)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

var cmdNames = []string{
	"errors", "filter", "mode", "quit", "rate", "recv", "reset", "send",
}

func run(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not dial %q: %w", addr, err)
	}
	defer conn.Close()

	var (
		dec = json.NewDecoder(conn)
		enc = json.NewEncoder(conn)
	)

	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(func(line string) (o []string) {
		for _, cmd := range cmdNames {
			if strings.HasPrefix(cmd, strings.ToLower(line)) {
				o = append(o, cmd)
			}
		}
		return o
	})

	for {
		line, err := term.Prompt("can> ")
		switch {
		case err == nil:
			// ok
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		default:
			fmt.Println()
			return nil
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		term.AppendHistory(line)

		req := can.Request{Name: args[0], Args: args[1:]}
		err = enc.Encode(req)
		if err != nil {
			return fmt.Errorf("could not send request: %w", err)
		}

		var rep can.Reply
		err = dec.Decode(&rep)
		if err != nil {
			return fmt.Errorf("could not decode reply: %w", err)
		}
		switch {
		case rep.Err != "":
			fmt.Printf("error: %s\n", rep.Err)
		default:
			fmt.Println(rep.Msg)
		}

		if req.Name == "quit" {
			return nil
		}
	}
}
