// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mellium.im/jingle/internal/config"
	"mellium.im/jingle/internal/logging"
)

// app holds the state shared by the subcommands.
type app struct {
	configFile string
	logXML     bool

	cfg    *config.Config
	logger *logrus.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jinglectl",
		Short: "Place and answer Jingle calls",
		Long: `jinglectl places and answers Jingle calls over an XMPP account.

The account is read from the configuration file, and every setting may be
overridden by an environment variable with the ` + config.EnvPrefix + `_ prefix, for example:

    ` + config.EnvPrefix + `_ACCOUNT_JID=romeo@montague.lit
    ` + config.EnvPrefix + `_ACCOUNT_PASSWORD=<not shown>`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVar(&a.logXML, "xml", false, "log sent and received XML")

	root.AddCommand(
		newCallCmd(a),
		newListenCmd(a),
		newValidateCmd(),
	)
	return root
}

// load reads the configuration and sets up logging.
func (a *app) load() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	if a.logXML {
		logger.SetLevel(logrus.TraceLevel)
	}
	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}
