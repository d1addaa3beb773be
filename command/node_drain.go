// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/nomad-rest-client/client"
	flaghelper "github.com/hashicorp/nomad-rest-client/helper/flag"
	"github.com/hashicorp/nomad/api"
)

type NodeDrainCommand struct {
	Meta
}

func (c *NodeDrainCommand) Help() string {
	helpText := `
Usage: nomad-rest-client node-drain [options] <node>...

  Drains one or more nodes concurrently and waits until every drain has
  finished. The command fails if any node fails to drain, reporting the error
  of every failed node.

General Options:

  ` + generalOptionsUsage() + `

Node Drain Options:

  -deadline=<dur>
    Set the deadline by which all allocations must be moved off the node.
    Remaining allocations after the deadline are forced removed from the
    node. The default is 15m.

  -ignore-system
    Ignore system allocations when draining.

  -timeout=<dur>
    The maximum time to wait for each drain to finish. Defaults to the poll
    wait_timeout configuration value.
`
	return strings.TrimSpace(helpText)
}

func (c *NodeDrainCommand) Synopsis() string {
	return "Drains nodes and waits for the drains to finish"
}

func (c *NodeDrainCommand) Run(args []string) int {
	var (
		ignoreSystem bool
		timeout      time.Duration
		deadline     = client.DefaultNodeDrainDeadline
	)

	flags := c.flagSet("node-drain")
	flags.BoolVar(&ignoreSystem, "ignore-system", false, "")
	flags.Var((flaghelper.FuncDurationVar)(func(d time.Duration) error {
		deadline = d
		return nil
	}), "deadline", "")
	flags.Var((flaghelper.FuncDurationVar)(func(d time.Duration) error {
		timeout = d
		return nil
	}), "timeout", "")

	if err := flags.Parse(args); err != nil {
		return c.usageError("node-drain", err.Error())
	}

	nodeIDs := flags.Args()
	if len(nodeIDs) == 0 {
		return c.usageError("node-drain", "This command takes at least one argument: <node>...")
	}

	nomad, _, err := c.setupClient()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error setting up client: %v", err))
		return exitFailure
	}

	spec := &api.DrainSpec{
		Deadline:         deadline,
		IgnoreSystemJobs: ignoreSystem,
	}

	if err := nomad.Nodes().DrainAndWait(c.context(), nodeIDs, spec, timeout); err != nil {
		c.Ui.Error(fmt.Sprintf("Error draining nodes: %v", err))
		return exitFailure
	}

	c.Ui.Output(fmt.Sprintf("Drained %d node(s)", len(nodeIDs)))
	return exitOK
}
