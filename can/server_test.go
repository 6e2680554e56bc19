// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
)

func TestServer(t *testing.T) {
	chip := newFakeChip()
	dev := testDevice(t, chip)
	defer dev.Close()

	srv, err := NewServer("127.0.0.1:0", dev)
	if err != nil {
		t.Fatalf("could not create control server: %+v", err)
	}
	defer srv.Close()
	go srv.Run()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial control server: %+v", err)
	}
	defer conn.Close()

	var (
		dec = json.NewDecoder(conn)
		enc = json.NewEncoder(conn)
	)
	xfer := func(req Request) Reply {
		t.Helper()
		err := enc.Encode(req)
		if err != nil {
			t.Fatalf("could not encode request %v: %+v", req, err)
		}
		var rep Reply
		err = dec.Decode(&rep)
		if err != nil {
			t.Fatalf("could not decode reply to %v: %+v", req, err)
		}
		return rep
	}

	for _, tc := range []struct {
		req  Request
		want Reply
	}{
		{
			req:  Request{Name: "mode", Args: []string{"test-local"}},
			want: Reply{Msg: "mode test-local"},
		},
		{
			req:  Request{Name: "rate", Args: []string{"500000"}},
			want: Reply{Msg: "rate 500000 Hz"},
		},
		{
			req:  Request{Name: "filter", Args: []string{"0x123", "0x7ff", "std"}},
			want: Reply{Msg: "filter handle=2"},
		},
		{
			req:  Request{Name: "send", Args: []string{"0x123", "std", "data", "cafe"}},
			want: Reply{Msg: "sent id=0x123 standard data [2] ca fe"},
		},
		{
			req:  Request{Name: "recv"},
			want: Reply{Msg: "id=0x123 standard data [2] ca fe"},
		},
		{
			req:  Request{Name: "errors"},
			want: Reply{Msg: "rec=0 tec=0"},
		},
		{
			req:  Request{Name: "reset"},
			want: Reply{Msg: "reset"},
		},
	} {
		t.Run(tc.req.Name, func(t *testing.T) {
			got := xfer(tc.req)
			if got != tc.want {
				t.Fatalf("invalid reply:\ngot= %#v\nwant=%#v", got, tc.want)
			}
		})
	}

	t.Run("recv-empty", func(t *testing.T) {
		rep := xfer(Request{Name: "recv"})
		if !strings.Contains(rep.Err, "no message available") {
			t.Fatalf("invalid reply: %#v", rep)
		}
	})

	t.Run("bad-mode", func(t *testing.T) {
		rep := xfer(Request{Name: "mode", Args: []string{"warp"}})
		if !strings.Contains(rep.Err, "unknown mode") {
			t.Fatalf("invalid reply: %#v", rep)
		}
	})

	t.Run("unknown-command", func(t *testing.T) {
		rep := xfer(Request{Name: "frobnicate"})
		if !strings.Contains(rep.Err, "unknown command") {
			t.Fatalf("invalid reply: %#v", rep)
		}
	})

	t.Run("quit", func(t *testing.T) {
		rep := xfer(Request{Name: "quit"})
		if got, want := rep.Msg, "bye"; got != want {
			t.Fatalf("invalid reply: got=%q, want=%q", got, want)
		}
	})
}

func TestParseMessage(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want Message
		err  string
	}{
		{
			args: []string{"0x123", "std", "data", "0xdeadbeef"},
			want: Message{ID: 0x123, Format: Standard, Type: Data, Len: 4, Data: [8]byte{0xDE, 0xAD, 0xBE, 0xEF}},
		},
		{
			args: []string{"0x1abcdef0", "ext", "rtr"},
			want: Message{ID: 0x1ABCDEF0, Format: Extended, Type: Remote},
		},
		{
			args: []string{"0x123", "std", "data", "00112233445566778899"},
			err:  "payload too long",
		},
		{
			args: []string{"0x123", "std", "data", "zz"},
			err:  "invalid payload",
		},
		{
			args: []string{"oops", "std", "data"},
			err:  "invalid identifier",
		},
		{
			args: []string{"0x123"},
			err:  "usage:",
		},
	} {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			got, err := parseMessage(tc.args)
			switch {
			case tc.err != "":
				if err == nil || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("invalid error: got=%+v, want=%q", err, tc.err)
				}
			default:
				if err != nil {
					t.Fatalf("could not parse message: %+v", err)
				}
				if got != tc.want {
					t.Fatalf("invalid message:\ngot= %#v\nwant=%#v", got, tc.want)
				}
			}
		})
	}
}
