// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"strings"

	"github.com/hashicorp/nomad-rest-client/stream"
)

type LogsCommand struct {
	Meta
}

func (c *LogsCommand) Help() string {
	helpText := `
Usage: nomad-rest-client logs [options] <allocation> <task>

  Prints the stdout or stderr log of a task. Without -follow the log is read
  from the start until no more data is available. With -follow the log is
  polled for new data until an interrupt is received or the allocation goes
  away.

General Options:

  ` + generalOptionsUsage() + `

Logs Options:

  -stderr
    Display stderr logs instead of stdout.

  -follow
    Keep polling for new log data.
`
	return strings.TrimSpace(helpText)
}

func (c *LogsCommand) Synopsis() string {
	return "Prints or follows the logs of a task"
}

func (c *LogsCommand) Run(args []string) int {
	var stderr, follow bool

	flags := c.flagSet("logs")
	flags.BoolVar(&stderr, "stderr", false, "")
	flags.BoolVar(&follow, "follow", false, "")

	if err := flags.Parse(args); err != nil {
		return c.usageError("logs", err.Error())
	}

	args = flags.Args()
	if len(args) != 2 {
		return c.usageError("logs", "This command takes two arguments: <allocation> <task>")
	}
	allocID, task := args[0], args[1]

	kind := stream.Stdout
	if stderr {
		kind = stream.Stderr
	}

	nomad, logger, err := c.setupClient()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error setting up client: %v", err))
		return exitFailure
	}
	tasks := nomad.Tasks()
	ctx := c.context()
	out := c.out()

	if !follow {
		var offset int64
		for {
			chunk, err := tasks.ReadLogs(ctx, allocID, task, kind, offset)
			if err != nil {
				c.Ui.Error(fmt.Sprintf("Error reading logs: %v", err))
				return exitFailure
			}
			if len(chunk.Data) == 0 || chunk.NextOffset <= offset {
				return exitOK
			}
			if _, err := out.Write(chunk.Data); err != nil {
				c.Ui.Error(fmt.Sprintf("Error writing logs: %v", err))
				return exitFailure
			}
			offset = chunk.NextOffset
		}
	}

	s, err := tasks.StreamLogs(ctx, allocID, task, kind,
		func(data string) {
			_, _ = fmt.Fprint(out, data)
		},
		func(err error) {
			c.Ui.Error(fmt.Sprintf("Error streaming logs: %v", err))
		},
	)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error starting log stream: %v", err))
		return exitFailure
	}

	select {
	case <-ctx.Done():
		s.Cancel()
		<-s.Done()
		logger.Debug("log stream stopped", "offset", s.Offset())
		return exitOK
	case <-s.Done():
	}

	if s.Err() != nil {
		return exitFailure
	}
	return exitOK
}
