// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"mellium.im/sasl"
	"mellium.im/xmpp"
	"mellium.im/xmpp/dial"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle/internal/config"
)

const loginTimeout = 30 * time.Second

// logWriter logs raw XML at the trace level.
type logWriter struct {
	logger logrus.FieldLogger
	prefix string
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.WithField("dir", w.prefix).Tracef("%s", p)
	return len(p), nil
}

// login connects to the server of the configured account and authenticates.
func login(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*xmpp.Session, error) {
	addr, err := cfg.Address()
	if err != nil {
		return nil, fmt.Errorf("error parsing address %q: %w", cfg.Account.JID, err)
	}

	logger.WithField("addr", addr.String()).Debug("logging in…")
	dialCtx, dialCtxCancel := context.WithTimeout(ctx, loginTimeout)
	defer dialCtxCancel()
	conn, err := dialServer(dialCtx, addr, cfg.Account.Addr)
	if err != nil {
		return nil, fmt.Errorf("error dialing connection: %w", err)
	}
	negotiator := xmpp.NewNegotiator(func(*xmpp.Session, *xmpp.StreamConfig) xmpp.StreamConfig {
		return xmpp.StreamConfig{
			Features: []xmpp.StreamFeature{
				xmpp.BindResource(),
				xmpp.StartTLS(&tls.Config{
					ServerName: addr.Domain().String(),
					MinVersion: tls.VersionTLS12,
				}),
				xmpp.SASL("", cfg.Account.Password, sasl.ScramSha256Plus, sasl.ScramSha1Plus, sasl.ScramSha256, sasl.ScramSha1, sasl.Plain),
			},
			TeeIn:  logWriter{logger: logger, prefix: "RECV"},
			TeeOut: logWriter{logger: logger, prefix: "SENT"},
		}
	})
	session, err := xmpp.NewSession(dialCtx, addr.Domain(), addr, conn, 0, negotiator)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error logging in: %w", err)
	}
	return session, nil
}

// dialServer connects to hostport if set, or else looks up the server of addr.
func dialServer(ctx context.Context, addr jid.JID, hostport string) (net.Conn, error) {
	if hostport == "" {
		return dial.Client(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", hostport)
}
