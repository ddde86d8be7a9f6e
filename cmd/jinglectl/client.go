// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"mellium.im/xmpp"
	"mellium.im/xmpp/disco"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/call"
	"mellium.im/jingle/internal/config"
	"mellium.im/jingle/rtp"
)

const (
	nsICE = "urn:xmpp:jingle:transports:ice-udp:1"

	hangupTimeout = 5 * time.Second
)

// client is a logged in account with a Jingle manager serving it.
type client struct {
	logger  logrus.FieldLogger
	session *xmpp.Session
	m       *call.Manager
	metrics *http.Server

	events chan call.Event
	done   chan struct{}
}

// connect logs in and starts handling incoming stanzas.
func (a *app) connect(ctx context.Context) (*client, error) {
	session, err := login(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	c := &client{
		logger:  a.logger,
		session: session,
		events:  make(chan call.Event, 32),
		done:    make(chan struct{}),
	}
	c.m = call.New(session.LocalAddr(), session,
		call.Logger(a.logger),
		call.Metrics(reg),
		call.OnEvent(c.push),
		call.Features(rtp.NS, rtp.NSInfo, nsICE),
		call.SupportedInfo(rtp.NSInfo),
	)
	go func() {
		defer close(c.done)
		err := session.Serve(mux.New(stanza.NSClient, disco.Handle(), call.Handle(c.m)))
		if err != nil {
			c.logger.WithError(err).Error("error handling session responses")
		}
		c.m.Reset()
	}()

	// Send initial presence so that peers can reach our full JID.
	err = session.Send(ctx, stanza.Presence{}.Wrap(nil))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("error sending presence: %w", err)
	}

	if a.cfg.Metrics.Listen != "" {
		c.metrics = serveMetrics(a.cfg.Metrics, reg, a.logger)
	}
	c.logger.WithField("addr", session.LocalAddr().String()).Info("logged in")
	return c, nil
}

// push is called by the manager for every event.
// It must not block since it runs on the goroutine that reads the stream.
func (c *client) push(e call.Event) {
	select {
	case c.events <- e:
	default:
		c.logger.WithField("sid", e.SID).Warn("event queue full, dropping event")
	}
}

// hangup terminates every session that is still open.
func (c *client) hangup() {
	ctx, cancel := context.WithTimeout(context.Background(), hangupTimeout)
	defer cancel()
	for _, s := range c.m.Sessions() {
		err := c.m.Terminate(ctx, s.SID(), jingle.Reason{Condition: jingle.Success})
		if err != nil {
			c.logger.WithField("sid", s.SID()).WithError(err).Warn("error ending session")
		}
	}
}

// Close hangs up, ends the XMPP session, and stops the metrics server.
func (c *client) Close() error {
	c.hangup()
	if c.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), hangupTimeout)
		defer cancel()
		if err := c.metrics.Shutdown(ctx); err != nil {
			c.logger.WithError(err).Warn("error stopping metrics server")
		}
	}
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("error ending session: %w", err)
	}
	if err := c.session.Conn().Close(); err != nil {
		return fmt.Errorf("error closing connection: %w", err)
	}
	<-c.done
	return nil
}

// serveMetrics exposes the metrics in reg over HTTP.
func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger logrus.FieldLogger) *http.Server {
	h := http.NewServeMux()
	h.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.Listen, "path": cfg.Path}).Info("starting metrics server")
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server error")
		}
	}()
	return srv
}

var payloads = map[string][]rtp.PayloadType{
	rtp.Audio: {
		{ID: 111, Name: "opus", ClockRate: 48000, Channels: 2},
		{ID: 0, Name: "PCMU", ClockRate: 8000},
	},
	rtp.Video: {
		{ID: 96, Name: "VP8", ClockRate: 90000},
	},
}

// offer returns one content per media type with an RTP description and an
// empty ICE-UDP transport.
func offer(media []string) []*jingle.Content {
	contents := make([]*jingle.Content, 0, len(media))
	for _, m := range media {
		c := rtp.NewContent(jingle.CreatorInitiator, rtp.Description{
			Media:    m,
			Payloads: payloads[m],
		})
		c.AddSubElement(jingle.NewElement(xml.Name{Space: nsICE, Local: "transport"}))
		contents = append(contents, c)
	}
	return contents
}

// describe returns a short summary of the contents for logging.
func describe(contents []*jingle.Content) []string {
	var out []string
	for _, c := range contents {
		d, ok, err := rtp.ParseDescription(c)
		switch {
		case err != nil:
			out = append(out, c.Key().String()+" (invalid description)")
		case !ok:
			out = append(out, c.Key().String())
		default:
			out = append(out, fmt.Sprintf("%s (%s, %d codecs)", c.Key(), d.Media, len(d.Payloads)))
		}
	}
	return out
}
