// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
	"mellium.im/jingle/call"
	"mellium.im/jingle/rtp"
	"mellium.im/jingle/session"
)

var (
	errDisconnected = errors.New("disconnected from server")
	errNoAnswer     = errors.New("peer did not answer")
)

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <peer>",
		Short: "Call the full JID of a peer and wait until the call ends",
		Long: `Call sends a session-initiate offering the configured media to the peer.

The call is terminated if the peer does not accept it before the configured
timeout. Press Ctrl-C to hang up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := jid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("error parsing %q as a JID: %w", args[0], err)
			}
			if err = a.load(); err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			sid, err := c.m.Open(ctx, peer, offer(a.cfg.Call.Media)...)
			if err != nil {
				return fmt.Errorf("error calling %s: %w", peer, err)
			}
			c.logger.WithField("sid", sid).Infof("calling %s…", peer)
			return c.await(ctx, sid, a.cfg.Call.Timeout)
		},
	}
}

// await waits until the session sid ends or ctx is canceled.
// The session is terminated if it is still pending after timeout.
func (c *client) await(ctx context.Context, sid string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return errDisconnected
		case <-timer.C:
			s, ok := c.m.Session(sid)
			if !ok || s.State() != session.Pending {
				continue
			}
			tctx, cancel := context.WithTimeout(context.Background(), hangupTimeout)
			err := c.m.Terminate(tctx, sid, jingle.Reason{Condition: jingle.Timeout})
			cancel()
			if err != nil {
				c.logger.WithField("sid", sid).WithError(err).Warn("error ending session")
			}
			return errNoAnswer
		case e := <-c.events:
			if e.Outbound {
				continue
			}
			if e.SID != sid {
				c.decline(ctx, e)
				continue
			}
			if done := c.report(e); done {
				return nil
			}
		}
	}
}

// decline rejects calls that arrive while another one is in progress.
func (c *client) decline(ctx context.Context, e call.Event) {
	if e.Err != nil || e.Action != jingle.SessionInitiate {
		return
	}
	err := c.m.Terminate(ctx, e.SID, jingle.Reason{Condition: jingle.Busy})
	if err != nil {
		c.logger.WithField("sid", e.SID).WithError(err).Warn("error declining call")
	}
}

// report logs an incoming event and reports whether the session has ended.
func (c *client) report(e call.Event) bool {
	log := c.logger.WithField("sid", e.SID).WithField("peer", e.Peer.String())
	if e.Err != nil {
		log.WithError(e.Err).Warn("rejected stanza from peer")
		return false
	}
	switch e.Action {
	case jingle.SessionInitiate:
		log.WithField("contents", describe(e.Jingle.Contents)).Info("incoming call")
	case jingle.SessionAccept:
		log.WithField("contents", describe(e.Jingle.Contents)).Info("call accepted")
	case jingle.SessionInfo:
		info, err := rtp.ParseInfo(*e.Jingle.Info)
		if err != nil {
			log.WithError(err).Debug("unknown session-info")
			break
		}
		log.Infof("peer: %s", info.Type)
	case jingle.SessionTerminate:
		reason := "none"
		if e.Jingle.Reason != nil {
			reason = string(e.Jingle.Reason.Condition)
		}
		log.WithField("reason", reason).Info("call ended")
		return true
	default:
		log.WithField("action", e.Action.String()).Debug("session updated")
	}
	return e.State == session.Terminated
}
