// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad-rest-client/client"
	"github.com/hashicorp/nomad-rest-client/config"
	flaghelper "github.com/hashicorp/nomad-rest-client/helper/flag"
	"github.com/hashicorp/nomad-rest-client/telemetry"
	"github.com/mitchellh/cli"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Meta contains the state and flags shared by every command which talks to
// Nomad.
type Meta struct {
	// Ctx is canceled when the process receives an interrupt.
	Ctx context.Context

	// Ui is used for all human facing output.
	Ui cli.Ui

	// Out receives raw task log data. It defaults to os.Stdout.
	Out io.Writer

	// LogOutput receives the client logs. It defaults to os.Stderr.
	LogOutput io.Writer

	configPaths []string
	cmdConfig   *config.Client
}

// generalOptionsUsage returns the help text of the flags registered by
// flagSet.
func generalOptionsUsage() string {
	helpText := `
  -config=<path>
    The path to either a single config file or a directory of config files.
    May be specified multiple times; later paths take precedence.

  -address=<addr>
    The address of the Nomad agent in the form of protocol://addr:port.
    Overrides the NOMAD_ADDR environment variable if set.

  -region=<region>
    The region of the Nomad servers to forward commands to.

  -namespace=<namespace>
    The target namespace for queries and actions bound to a namespace.

  -token=<token>
    The SecretID of an ACL token to use to authenticate API requests with.

  -http-auth=<username:password>
    The authentication information to use when connecting to a Nomad API
    which is using HTTP authentication.

  -ca-cert=<path>
    Path to a PEM encoded CA cert file to use to verify the Nomad server SSL
    certificate.

  -ca-path=<path>
    Path to a directory of PEM encoded CA cert files to verify the Nomad
    server SSL certificate.

  -client-cert=<path>
    Path to a PEM encoded client certificate for TLS authentication to the
    Nomad server. Must also specify -client-key.

  -client-key=<path>
    Path to an unencrypted PEM encoded private key matching the client
    certificate from -client-cert.

  -tls-server-name=<name>
    The server name to use as the SNI host when connecting via TLS.

  -tls-skip-verify
    Do not verify TLS certificates. This is strongly discouraged.

  -log-level=<level>
    Specify the verbosity level of the client logs. Valid values include
    TRACE, DEBUG, INFO, WARN and ERROR. The default is INFO.

  -log-json
    Output logs in a JSON format. The default is false.
`
	return strings.TrimSpace(helpText)
}

// flagSet returns a new flag set with the shared flags registered. The values
// are collected into a configuration overlay which readConfig merges on top
// of the loaded config files.
func (m *Meta) flagSet(name string) *flag.FlagSet {
	m.configPaths = nil
	m.cmdConfig = &config.Client{
		Nomad: &config.Nomad{},
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)

	flags.Var((*flaghelper.StringFlag)(&m.configPaths), "config", "")
	flags.StringVar(&m.cmdConfig.LogLevel, "log-level", "", "")
	flags.BoolVar(&m.cmdConfig.LogJson, "log-json", false, "")

	flags.StringVar(&m.cmdConfig.Nomad.Address, "address", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.Region, "region", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.Namespace, "namespace", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.Token, "token", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.HTTPAuth, "http-auth", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.CACert, "ca-cert", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.CAPath, "ca-path", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.ClientCert, "client-cert", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.ClientKey, "client-key", "", "")
	flags.StringVar(&m.cmdConfig.Nomad.TLSServerName, "tls-server-name", "", "")
	flags.BoolVar(&m.cmdConfig.Nomad.SkipVerify, "tls-skip-verify", false, "")

	return flags
}

// readConfig validates the flag overlay and merges it on top of the
// configuration loaded from the -config paths.
func (m *Meta) readConfig() (*config.Client, error) {
	if err := m.cmdConfig.Validate(); err != nil {
		return nil, err
	}

	fileConfig, err := config.LoadPaths(m.configPaths)
	if err != nil {
		return nil, err
	}

	return fileConfig.Merge(m.cmdConfig), nil
}

// setupClient reads the configuration and builds the logger, the metrics
// sinks and the Nomad client from it.
func (m *Meta) setupClient() (*client.Client, hclog.Logger, error) {
	cfg, err := m.readConfig()
	if err != nil {
		return nil, nil, err
	}

	logOutput := m.LogOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:       "nomad-rest-client",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJson,
		Output:     logOutput,
	})

	if _, err := telemetry.Setup(cfg.Telemetry); err != nil {
		return nil, nil, fmt.Errorf("failed to setup telemetry: %v", err)
	}

	c, err := client.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("client configured", "address", c.Address())

	return c, logger, nil
}

func (m *Meta) context() context.Context {
	if m.Ctx == nil {
		return context.Background()
	}
	return m.Ctx
}

func (m *Meta) out() io.Writer {
	if m.Out == nil {
		return os.Stdout
	}
	return m.Out
}

// usageError reports a usage problem along with a pointer to the help text
// and returns the usage exit code.
func (m *Meta) usageError(name, msg string) int {
	if msg != "" {
		m.Ui.Error(msg)
	}
	m.Ui.Error(fmt.Sprintf("Run 'nomad-rest-client %s -help' for more information.", name))
	return exitUsage
}
