// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command can-gw bridges the on-board C_CAN controller and a SocketCAN
// network interface: frames received on one side are replayed on the
// other.
//
// The gateway is configured with an INI file:
//
//	[can]
//	rd   = 11     ; pin CAN0 RD is routed to
//	td   = 31     ; pin CAN0 TD is routed to
//	rate = 500000 ; bus bit rate, in Hz
//
//	[gateway]
//	iface = can0  ; SocketCAN interface to bridge to
package main // import "github.com/go-lpc/ccan/cmd/can-gw"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brutella/can"
	"golang.org/x/sync/errgroup"
	"gopkg.in/ini.v1"

	ccan "github.com/go-lpc/ccan/can"
)

// SocketCAN encodes the frame format and type in the high bits of the
// identifier.
const (
	frameEFF = 0x80000000 // extended frame format
	frameRTR = 0x40000000 // remote transmission request
)

func main() {
	log.SetPrefix("can-gw: ")
	log.SetFlags(0)

	fname := flag.String("cfg", "/etc/can-gw.ini", "path to the gateway configuration file")

	flag.Parse()

	cfg, err := loadConfig(*fname)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	err = run(cfg)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

type gwConfig struct {
	rd    ccan.Pin
	td    ccan.Pin
	rate  uint32
	iface string
}

func loadConfig(fname string) (gwConfig, error) {
	var gw gwConfig

	cfg, err := ini.Load(fname)
	if err != nil {
		return gw, fmt.Errorf("could not load config %q: %w", fname, err)
	}

	sec := cfg.Section("can")
	gw.rd = ccan.Pin(sec.Key("rd").MustUint(uint(ccan.P0_11)))
	gw.td = ccan.Pin(sec.Key("td").MustUint(uint(ccan.P0_31)))
	gw.rate = uint32(sec.Key("rate").MustUint(100000))
	gw.iface = cfg.Section("gateway").Key("iface").MustString("can0")

	return gw, nil
}

func run(cfg gwConfig) error {
	dev, err := ccan.New(cfg.rd, cfg.td, ccan.WithBitRate(cfg.rate))
	if err != nil {
		return fmt.Errorf("could not open CAN device: %w", err)
	}
	defer dev.Close()

	bus, err := can.NewBusForInterfaceWithName(cfg.iface)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", cfg.iface, err)
	}
	defer bus.Disconnect()

	gw := &gateway{dev: dev, bus: bus}
	bus.Subscribe(gw)

	log.Printf("bridging C_CAN (rd=%v, td=%v, rate=%d Hz) and %q...",
		cfg.rd, cfg.td, cfg.rate, cfg.iface,
	)

	grp, ctx := errgroup.WithContext(context.Background())
	grp.Go(func() error {
		return gw.pump(ctx)
	})
	grp.Go(func() error {
		// ConnectAndPublish drives the Subscribe callbacks.
		err := bus.ConnectAndPublish()
		if err != nil {
			return fmt.Errorf("could not read from %q: %w", cfg.iface, err)
		}
		return nil
	})
	return grp.Wait()
}

type gateway struct {
	dev *ccan.Device
	bus *can.Bus
}

// pump replays frames received by the C_CAN controller on the
// SocketCAN side.
func (gw *gateway) pump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := gw.dev.Read(0)
		switch {
		case err == nil:
			// ok
		case errors.Is(err, ccan.ErrNoMsg):
			time.Sleep(1 * time.Millisecond)
			continue
		default:
			return fmt.Errorf("could not read frame: %w", err)
		}

		frame := can.Frame{
			ID:     msg.ID,
			Length: msg.Len,
			Data:   msg.Data,
		}
		if msg.Format == ccan.Extended {
			frame.ID |= frameEFF
		}
		if msg.Type == ccan.Remote {
			frame.ID |= frameRTR
		}

		err = gw.bus.Publish(frame)
		if err != nil {
			return fmt.Errorf("could not publish frame id=0x%x: %w", msg.ID, err)
		}
	}
}

// Handle replays one SocketCAN frame on the C_CAN controller. It
// implements the can.Handler interface.
func (gw *gateway) Handle(frame can.Frame) {
	msg := ccan.Message{
		ID:     frame.ID & 0x1FFFFFFF,
		Format: ccan.Standard,
		Type:   ccan.Data,
		Len:    frame.Length,
		Data:   frame.Data,
	}
	if frame.ID&frameEFF != 0 {
		msg.Format = ccan.Extended
	} else {
		msg.ID &= 0x7FF
	}
	if frame.ID&frameRTR != 0 {
		msg.Type = ccan.Remote
	}
	if msg.Len > 8 {
		msg.Len = 8
	}

	for {
		err := gw.dev.Write(msg)
		switch {
		case err == nil:
			return
		case errors.Is(err, ccan.ErrTxBusy):
			time.Sleep(100 * time.Microsecond)
		default:
			log.Printf("could not transmit frame id=0x%x: %+v", msg.ID, err)
			return
		}
	}
}
