// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/nomad-rest-client/client"
	flaghelper "github.com/hashicorp/nomad-rest-client/helper/flag"
	"github.com/hashicorp/nomad-rest-client/wait"
)

// WaitCommand blocks until a Nomad object reaches a status. The object is
// chosen by the command name; the positional arguments are passed to waitFn.
type WaitCommand struct {
	Meta

	name     string
	synopsis string
	usage    string
	help     string
	argNames []string
	waitFn   func(ctx context.Context, c *client.Client, args []string, timeout time.Duration) wait.Result
}

// NewAllocWaitCommand returns the alloc-wait command.
func NewAllocWaitCommand(m Meta) *WaitCommand {
	return &WaitCommand{
		Meta:     m,
		name:     "alloc-wait",
		synopsis: "Waits for an allocation to reach a client status",
		usage:    "<allocation> <status>",
		help: `Waits for the client status of an allocation to become <status>. Waiting
  for "complete" also succeeds when the allocation has been garbage collected.`,
		argNames: []string{"allocation", "status"},
		waitFn: func(ctx context.Context, c *client.Client, args []string, timeout time.Duration) wait.Result {
			return c.Allocations().WaitForStatus(ctx, args[0], args[1], timeout)
		},
	}
}

// NewTaskWaitCommand returns the task-wait command.
func NewTaskWaitCommand(m Meta) *WaitCommand {
	return &WaitCommand{
		Meta:     m,
		name:     "task-wait",
		synopsis: "Waits for a task to reach a state",
		usage:    "<allocation> <task> <status>",
		help: `Waits for the state of a task within an allocation to become <status>.
  A task without a reported state is considered pending.`,
		argNames: []string{"allocation", "task", "status"},
		waitFn: func(ctx context.Context, c *client.Client, args []string, timeout time.Duration) wait.Result {
			return c.Tasks().WaitForStatus(ctx, args[0], args[1], args[2], timeout)
		},
	}
}

// NewJobWaitCommand returns the job-wait command.
func NewJobWaitCommand(m Meta) *WaitCommand {
	return &WaitCommand{
		Meta:     m,
		name:     "job-wait",
		synopsis: "Waits for a job to reach a status",
		usage:    "<job> <status>",
		help: `Waits for the status of a job to become <status>. Waiting for "complete"
  also succeeds when the job has been purged.`,
		argNames: []string{"job", "status"},
		waitFn: func(ctx context.Context, c *client.Client, args []string, timeout time.Duration) wait.Result {
			return c.Jobs().WaitForStatus(ctx, args[0], args[1], timeout)
		},
	}
}

// NewDeploymentWaitCommand returns the deployment-wait command.
func NewDeploymentWaitCommand(m Meta) *WaitCommand {
	return &WaitCommand{
		Meta:     m,
		name:     "deployment-wait",
		synopsis: "Waits for the latest deployment of a job to succeed",
		usage:    "<job>",
		help: `Waits for the latest deployment of a job to become successful. A failed
  or cancelled deployment ends the wait with an error.`,
		argNames: []string{"job"},
		waitFn: func(ctx context.Context, c *client.Client, args []string, timeout time.Duration) wait.Result {
			return c.Jobs().WaitForDeployment(ctx, args[0], timeout)
		},
	}
}

func (c *WaitCommand) Help() string {
	helpText := `
Usage: nomad-rest-client ` + c.name + ` [options] ` + c.usage + `

  ` + c.help + `

General Options:

  ` + generalOptionsUsage() + `

Wait Options:

  -timeout=<dur>
    The maximum time to wait. Defaults to the poll wait_timeout configuration
    value, which is 5m unless set.
`
	return strings.TrimSpace(helpText)
}

func (c *WaitCommand) Synopsis() string {
	return c.synopsis
}

func (c *WaitCommand) Run(args []string) int {
	var timeout time.Duration

	flags := c.flagSet(c.name)
	flags.Var((flaghelper.FuncDurationVar)(func(d time.Duration) error {
		timeout = d
		return nil
	}), "timeout", "")

	if err := flags.Parse(args); err != nil {
		return c.usageError(c.name, err.Error())
	}

	args = flags.Args()
	if len(args) != len(c.argNames) {
		return c.usageError(c.name, fmt.Sprintf("This command takes %d argument(s): %s", len(c.argNames), c.usage))
	}

	nomad, _, err := c.setupClient()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error setting up client: %v", err))
		return exitFailure
	}

	res := c.waitFn(c.context(), nomad, args, timeout)
	subject := strings.Join(args[:len(args)-1], "/")
	if c.name == "deployment-wait" {
		subject = "latest deployment of " + args[0]
	}

	switch res.Outcome {
	case wait.Reached:
		c.Ui.Output(fmt.Sprintf("%s reached the desired status", subject))
		return exitOK
	case wait.TerminalMismatch:
		c.Ui.Error(fmt.Sprintf("%s reached terminal status %q", subject, res.Status))
	case wait.TimedOut:
		c.Ui.Error(fmt.Sprintf("Timed out waiting for %s; last status %q", subject, res.Status))
	case wait.Canceled:
		c.Ui.Error(fmt.Sprintf("Wait for %s was canceled", subject))
	default:
		c.Ui.Error(fmt.Sprintf("Error waiting for %s: %v", subject, res.Err))
	}
	return exitFailure
}
