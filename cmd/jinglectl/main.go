// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The jinglectl command places and answers Jingle (XEP-0166) calls from the
// command line.
//
// It negotiates RTP sessions (XEP-0167) but does not send any media.
// This makes it useful for testing the signaling of other clients.
//
// For more information run jinglectl help.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
