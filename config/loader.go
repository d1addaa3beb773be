// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/nomad-rest-client/helper/file"
)

// Loader decodes a single configuration file. Implementations are selected
// by the first one whose CanHandle returns true for the path.
type Loader interface {
	CanHandle(path string) bool
	Load(path string) (*Client, error)
}

// Loaders is an ordered registry of configuration file loaders.
type Loaders []Loader

// DefaultLoaders handles HCL and JSON configuration files.
var DefaultLoaders = Loaders{HCLLoader{}, JSONLoader{}}

// HCLLoader loads native HCL syntax files ending in .hcl.
type HCLLoader struct{}

func (HCLLoader) CanHandle(path string) bool { return strings.HasSuffix(path, ".hcl") }

func (HCLLoader) Load(path string) (*Client, error) {
	cfg := &Client{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, err
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JSONLoader loads files ending in .json written in the HCL JSON syntax, so
// the same block and attribute names apply.
type JSONLoader struct{}

func (JSONLoader) CanHandle(path string) bool { return strings.HasSuffix(path, ".json") }

func (JSONLoader) Load(path string) (*Client, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Client{}
	if err := hclsimple.Decode(filepath.Base(path), src, nil, cfg); err != nil {
		return nil, err
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l Loaders) loaderFor(path string) Loader {
	for _, loader := range l {
		if loader.CanHandle(path) {
			return loader
		}
	}
	return nil
}

// LoadFile decodes a single file with the first loader able to handle it.
func (l Loaders) LoadFile(path string) (*Client, error) {
	cleaned := filepath.Clean(path)

	loader := l.loaderFor(cleaned)
	if loader == nil {
		return nil, fmt.Errorf("unsupported config file format: %s", cleaned)
	}

	cfg, err := loader.Load(cleaned)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %v", cleaned, err)
	}
	return cfg, nil
}

// Load loads the configuration at the given path, regardless if its a file or
// directory. Called for each -config to build up the runtime config value.
func (l Loaders) Load(path string) (*Client, error) {
	isDir, err := pathIsDir(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		return l.loadDir(path)
	}
	return l.LoadFile(path)
}

// loadDir loads all the configurations in the given directory in alphabetical
// order.
func (l Loaders) loadDir(dir string) (*Client, error) {

	files, err := file.GetFileListFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config directory: %v", err)
	}

	var result *Client
	for _, f := range files {

		// Files no loader understands are skipped rather than rejected so
		// that READMEs and similar can live alongside the configuration.
		if l.loaderFor(f) == nil {
			continue
		}

		cfg, err := l.LoadFile(f)
		if err != nil {
			return nil, err
		}
		result = result.Merge(cfg)
	}

	if result == nil {
		return &Client{}, nil
	}
	return result, nil
}

// LoadPaths loads each path on top of the default configuration.
func (l Loaders) LoadPaths(paths []string) (*Client, error) {
	cfg := Default()

	var validationErr *multierror.Error

	for _, path := range paths {
		current, err := l.Load(path)
		if err != nil {
			return nil, fmt.Errorf("error loading configuration from %s: %s", path, err)
		}

		if err := current.Validate(); err != nil {
			errPrefix := fmt.Sprintf("%s:", path)
			validationErr = multierror.Append(validationErr, multierror.Prefix(err, errPrefix))

			// Continue looping so we can validate other files.
			continue
		}

		cfg = cfg.Merge(current)
	}

	if validationErr != nil {
		return nil, fmt.Errorf("invalid configuration. %v", validationErr)
	}

	return cfg, nil
}

// finalize converts the HCL duration strings and optional pointers into
// their typed counterparts once a file has been decoded.
func finalize(cfg *Client) error {
	if cfg.Transport != nil {
		if err := parseDuration(cfg.Transport.TimeoutHCL, &cfg.Transport.Timeout); err != nil {
			return err
		}
		if cfg.Transport.RateLimitPtr != nil {
			cfg.Transport.RateLimit = *cfg.Transport.RateLimitPtr
		}
	}

	if cfg.Poll != nil {
		if err := parseDuration(cfg.Poll.LogIntervalHCL, &cfg.Poll.LogInterval); err != nil {
			return err
		}
		if err := parseDuration(cfg.Poll.StatusIntervalHCL, &cfg.Poll.StatusInterval); err != nil {
			return err
		}
		if err := parseDuration(cfg.Poll.WaitTimeoutHCL, &cfg.Poll.WaitTimeout); err != nil {
			return err
		}
	}

	if cfg.Telemetry != nil {
		if err := parseDuration(cfg.Telemetry.CollectionIntervalHCL, &cfg.Telemetry.CollectionInterval); err != nil {
			return err
		}
		if err := parseDuration(cfg.Telemetry.PrometheusRetentionTimeHCL, &cfg.Telemetry.PrometheusRetentionTime); err != nil {
			return err
		}
	}

	return nil
}

func parseDuration(in string, out *time.Duration) error {
	if in == "" {
		return nil
	}
	d, err := time.ParseDuration(in)
	if err != nil {
		return err
	}
	*out = d
	return nil
}
