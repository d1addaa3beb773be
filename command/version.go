// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import "github.com/mitchellh/cli"

type VersionCommand struct {
	Version string
	Ui      cli.Ui
}

func (c *VersionCommand) Help() string {
	return "Usage: nomad-rest-client version\n\n  Prints the version of this binary."
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output(c.Version)
	return exitOK
}

func (c *VersionCommand) Synopsis() string {
	return "Prints the nomad-rest-client version"
}
