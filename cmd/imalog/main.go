// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// imalog parses IMA binary measurement lists and prints the decoded
// events together with the recomputed PCR values as YAML.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/google/go-imalog/imalog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "imalog <measurement-log>...",
		Short: "Replay IMA measurement logs and recompute their PCR values",
		Long: `imalog decodes one or more IMA binary measurement lists (typically
/sys/kernel/security/ima/binary_runtime_measurements) and prints, per
file, every measurement event plus the PCR values a TPM would hold
after replaying the log.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return run(cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log per-event detail to stderr")
	return cmd
}

// run replays every named log. Files are independent: a failure in one
// is reported and the rest are still processed.
func run(w io.Writer, files []string) error {
	var errs *multierror.Error
	for _, name := range files {
		if err := dumpFile(w, name); err != nil {
			logrus.WithField("file", name).WithError(err).Error("failed to replay measurement log")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs.ErrorOrNil()
}

func dumpFile(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	p := imalog.NewParser(f)
	var events []imalog.Event
	for {
		ev, err := p.Next()
		if err != nil {
			return err
		}
		if ev == nil {
			break
		}
		logrus.WithFields(logrus.Fields{
			"pcr":      ev.PCRIndex,
			"template": ev.Data.TemplateName(),
		}).Debug("decoded event")
		events = append(events, *ev)
	}
	logrus.WithFields(logrus.Fields{
		"file":   name,
		"events": len(events),
	}).Debug("replayed measurement log")

	return writeResults(w, makeResults(events, p.PCRValues()))
}
