// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mellium.im/jingle"
)

var errNoJingle = errors.New("no jingle element found")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a Jingle stanza without sending it",
		Long: `Validate decodes a Jingle element from the file (or stdin) and checks that it
has every field its action requires.

The element may be wrapped in an IQ or any other element.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			j, err := findJingle(in)
			if err != nil {
				return err
			}
			if err = jingle.Validate(j); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %v\n", err)
				return err
			}
			for _, w := range jingle.Lint(j) {
				fmt.Fprintf(cmd.OutOrStdout(), "WARNING: %v\n", w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VALID: %s sid=%q, %d content(s)\n", j.Action, j.SID, len(j.Contents))
			return nil
		},
	}
}

// findJingle decodes the first Jingle element in r.
func findJingle(r io.Reader) (*jingle.Jingle, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil, errNoJingle
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if ok && start.Name.Space == jingle.NS && start.Name.Local == "jingle" {
			return jingle.Decode(d, start)
		}
	}
}
