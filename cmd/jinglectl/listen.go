// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"mellium.im/jingle"
	"mellium.im/jingle/call"
	"mellium.im/jingle/rtp"
)

func newListenCmd(a *app) *cobra.Command {
	var accept bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Wait for incoming calls",
		Long: `Listen logs incoming calls and answers them with ringing.

Calls are accepted if call.auto_accept is set or the --accept flag is given,
otherwise they are declined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			defer a.close()
			if cmd.Flags().Changed("accept") {
				a.cfg.Call.AutoAccept = accept
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			c.logger.Info("waiting for calls…")
			return c.listen(ctx, a.cfg.Call.AutoAccept)
		},
	}
	cmd.Flags().BoolVar(&accept, "accept", false, "accept incoming calls and added contents")
	return cmd
}

func (c *client) listen(ctx context.Context, accept bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return errDisconnected
		case e := <-c.events:
			if e.Outbound {
				continue
			}
			c.report(e)
			if e.Err != nil {
				continue
			}
			switch e.Action {
			case jingle.SessionInitiate:
				c.answer(ctx, e, accept)
			case jingle.ContentAdd:
				c.answerContents(ctx, e, accept)
			}
		}
	}
}

// answer rings and then accepts or declines an incoming call.
func (c *client) answer(ctx context.Context, e call.Event, accept bool) {
	log := c.logger.WithField("sid", e.SID)
	if err := c.m.Info(ctx, e.SID, rtp.Ringing()); err != nil {
		log.WithError(err).Warn("error sending ringing")
	}
	var err error
	if accept {
		err = c.m.Accept(ctx, e.SID)
	} else {
		err = c.m.Terminate(ctx, e.SID, jingle.Reason{Condition: jingle.Decline})
	}
	if err != nil {
		log.WithError(err).Warn("error answering call")
	}
}

// answerContents accepts or rejects contents added by the peer.
func (c *client) answerContents(ctx context.Context, e call.Event, accept bool) {
	action := jingle.ContentReject
	if accept {
		action = jingle.ContentAccept
	}
	j := jingle.New(action, e.SID)
	j.Contents = e.Jingle.Contents
	if err := c.m.Send(ctx, e.SID, j); err != nil {
		c.logger.WithField("sid", e.SID).WithError(err).Warnf("error sending %s", action)
	}
}
