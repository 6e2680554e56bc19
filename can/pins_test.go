// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package can

import "testing"

func TestPinString(t *testing.T) {
	for _, tc := range []struct {
		pin  Pin
		want string
	}{
		{P0_0, "P0_0"},
		{P0_18, "P0_18"},
		{P0_31, "P0_31"},
		{P1_0, "P1_0"},
		{P1_31, "P1_31"},
		{P2_0, "P2_0"},
		{P2_12, "P2_12"},
	} {
		if got := tc.pin.String(); got != tc.want {
			t.Fatalf("invalid pin name: got=%q, want=%q", got, tc.want)
		}
	}
}

func TestPinMap(t *testing.T) {
	rd := PinMapRD()
	td := PinMapTD()
	if len(rd) == 0 || len(rd) != len(td) {
		t.Fatalf("invalid pin maps: rd=%d, td=%d", len(rd), len(td))
	}
	if got, want := rd[len(rd)-1].Pin, P2_12; got != want {
		t.Fatalf("invalid last pin: got=%v, want=%v", got, want)
	}
}
