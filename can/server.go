// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

// device is the controller surface the control server drives.
type device interface {
	SetMode(mode Mode) error
	SetFrequency(rate uint32) error
	Filter(id, mask uint32, format Format, handle int) (int, error)
	Write(msg Message) error
	Read(handle int) (Message, error)
	Reset() error
	ErrorCounters() (rec, tec uint8, err error)
}

var _ device = (*Device)(nil)

// Request is one command sent to the control server.
type Request struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// Reply is the control server's answer to a Request.
type Reply struct {
	Msg string `json:"msg,omitempty"`
	Err string `json:"err,omitempty"`
}

// Server exposes a CAN device over a TCP control socket, one JSON
// request/reply pair per command. Connections are served one at a
// time: the device registers tolerate a single foreground context.
type Server struct {
	ctl net.Listener
	msg *log.Logger
	dev device
}

// Serve runs a control server for dev on addr until the listener
// fails.
func Serve(addr string, dev device) error {
	srv, err := NewServer(addr, dev)
	if err != nil {
		return fmt.Errorf("can: could not create control server: %w", err)
	}
	return srv.Run()
}

// NewServer creates a control server for dev, listening on addr.
func NewServer(addr string, dev device) (*Server, error) {
	ctl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("can: could not listen on %q: %w", addr, err)
	}

	srv := &Server{
		ctl: ctl,
		msg: log.New(os.Stdout, "can-svc: ", 0),
		dev: dev,
	}
	return srv, nil
}

// Addr returns the address the server listens on.
func (srv *Server) Addr() net.Addr { return srv.ctl.Addr() }

// Close shuts the control listener down.
func (srv *Server) Close() error { return srv.ctl.Close() }

// Run accepts and serves control connections until the listener fails.
func (srv *Server) Run() error {
	for {
		conn, err := srv.ctl.Accept()
		if err != nil {
			return fmt.Errorf("can: could not accept connection: %w", err)
		}
		srv.handle(conn)
	}
}

func (srv *Server) handle(conn net.Conn) {
	defer conn.Close()

	srv.msg.Printf("serving %q...", conn.RemoteAddr())
	var (
		dec = json.NewDecoder(conn)
		enc = json.NewEncoder(conn)
	)
	for {
		var req Request
		err := dec.Decode(&req)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				srv.msg.Printf("could not decode request: %+v", err)
			}
			return
		}

		if req.Name == "quit" {
			_ = enc.Encode(Reply{Msg: "bye"})
			return
		}

		rep := srv.serve(req)
		err = enc.Encode(rep)
		if err != nil {
			srv.msg.Printf("could not encode reply: %+v", err)
			return
		}
	}
}

func (srv *Server) serve(req Request) Reply {
	rep, err := srv.run(req)
	if err != nil {
		return Reply{Err: err.Error()}
	}
	return rep
}

func (srv *Server) run(req Request) (Reply, error) {
	switch req.Name {
	case "mode":
		if len(req.Args) != 1 {
			return Reply{}, fmt.Errorf("usage: mode <name>")
		}
		mode, err := parseMode(req.Args[0])
		if err != nil {
			return Reply{}, err
		}
		err = srv.dev.SetMode(mode)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: "mode " + mode.String()}, nil

	case "rate":
		if len(req.Args) != 1 {
			return Reply{}, fmt.Errorf("usage: rate <hz>")
		}
		rate, err := strconv.ParseUint(req.Args[0], 10, 32)
		if err != nil {
			return Reply{}, fmt.Errorf("invalid bit rate %q: %w", req.Args[0], err)
		}
		err = srv.dev.SetFrequency(uint32(rate))
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: fmt.Sprintf("rate %d Hz", rate)}, nil

	case "filter":
		if len(req.Args) < 3 || len(req.Args) > 4 {
			return Reply{}, fmt.Errorf("usage: filter <id> <mask> <std|ext> [handle]")
		}
		id, err := strconv.ParseUint(req.Args[0], 0, 32)
		if err != nil {
			return Reply{}, fmt.Errorf("invalid identifier %q: %w", req.Args[0], err)
		}
		mask, err := strconv.ParseUint(req.Args[1], 0, 32)
		if err != nil {
			return Reply{}, fmt.Errorf("invalid mask %q: %w", req.Args[1], err)
		}
		format, err := parseFormat(req.Args[2])
		if err != nil {
			return Reply{}, err
		}
		handle := 0
		if len(req.Args) == 4 {
			handle, err = strconv.Atoi(req.Args[3])
			if err != nil {
				return Reply{}, fmt.Errorf("invalid handle %q: %w", req.Args[3], err)
			}
		}
		handle, err = srv.dev.Filter(uint32(id), uint32(mask), format, handle)
		if err != nil {
			return Reply{}, err
		}
		if handle == 0 {
			return Reply{}, fmt.Errorf("no free message object")
		}
		return Reply{Msg: fmt.Sprintf("filter handle=%d", handle)}, nil

	case "send":
		msg, err := parseMessage(req.Args)
		if err != nil {
			return Reply{}, err
		}
		err = srv.dev.Write(msg)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: "sent " + formatMessage(msg)}, nil

	case "recv":
		handle := 0
		if len(req.Args) == 1 {
			var err error
			handle, err = strconv.Atoi(req.Args[0])
			if err != nil {
				return Reply{}, fmt.Errorf("invalid handle %q: %w", req.Args[0], err)
			}
		}
		msg, err := srv.dev.Read(handle)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: formatMessage(msg)}, nil

	case "errors":
		rec, tec, err := srv.dev.ErrorCounters()
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: fmt.Sprintf("rec=%d tec=%d", rec, tec)}, nil

	case "reset":
		err := srv.dev.Reset()
		if err != nil {
			return Reply{}, err
		}
		return Reply{Msg: "reset"}, nil
	}

	return Reply{}, fmt.Errorf("unknown command %q", req.Name)
}

func parseMode(name string) (Mode, error) {
	switch name {
	case "reset":
		return ModeReset, nil
	case "normal":
		return ModeNormal, nil
	case "silent":
		return ModeSilent, nil
	case "test-local":
		return ModeTestLocal, nil
	case "test-silent":
		return ModeTestSilent, nil
	case "test-global":
		return ModeTestGlobal, nil
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

func parseFormat(name string) (Format, error) {
	switch name {
	case "std":
		return Standard, nil
	case "ext":
		return Extended, nil
	}
	return 0, fmt.Errorf("unknown frame format %q", name)
}

// parseMessage decodes "send" arguments: <id> <std|ext> <data|rtr>
// [hex payload].
func parseMessage(args []string) (Message, error) {
	var msg Message
	if len(args) < 3 || len(args) > 4 {
		return msg, fmt.Errorf("usage: send <id> <std|ext> <data|rtr> [hex-payload]")
	}

	id, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return msg, fmt.Errorf("invalid identifier %q: %w", args[0], err)
	}
	msg.ID = uint32(id)

	msg.Format, err = parseFormat(args[1])
	if err != nil {
		return msg, err
	}

	switch args[2] {
	case "data":
		msg.Type = Data
	case "rtr":
		msg.Type = Remote
	default:
		return msg, fmt.Errorf("unknown frame type %q", args[2])
	}

	if len(args) == 4 {
		raw, err := hex.DecodeString(strings.TrimPrefix(args[3], "0x"))
		if err != nil {
			return msg, fmt.Errorf("invalid payload %q: %w", args[3], err)
		}
		if len(raw) > dlcMax {
			return msg, fmt.Errorf("payload too long: %d bytes", len(raw))
		}
		msg.Len = uint8(len(raw))
		copy(msg.Data[:], raw)
	}
	return msg, nil
}

func formatMessage(msg Message) string {
	return fmt.Sprintf("id=0x%x %v %v [%d] % x",
		msg.ID, msg.Format, msg.Type, msg.Len, msg.Data[:msg.Len],
	)
}
