// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package nomad

import (
	"fmt"
	"strings"

	"github.com/hashicorp/nomad-rest-client/config"
	"github.com/hashicorp/nomad/api"
	"github.com/mitchellh/go-homedir"
)

// HTTPAuthFromString take an input string, and converts this to a Nomad API
// representation of basic HTTP auth.
func HTTPAuthFromString(auth string) *api.HttpBasicAuth {
	if auth == "" {
		return nil
	}

	var username, password string
	if strings.Contains(auth, ":") {
		split := strings.SplitN(auth, ":", 2)
		username = split[0]
		password = split[1]
	} else {
		username = auth
	}

	return &api.HttpBasicAuth{
		Username: username,
		Password: password,
	}
}

// MergeDefaultWithConfig merges the client Nomad configuration with the
// default Nomad API configuration. The client config takes precedence over
// the default config as any user supplied variables should override those
// configured by default or discovered via env vars within the Nomad API
// config.
func MergeDefaultWithConfig(cfg *config.Nomad) *api.Config {

	// Use the Nomad API default config which gets populated by defaults and
	// also checks for environment variables.
	apiCfg := api.DefaultConfig()

	if cfg == nil {
		return apiCfg
	}

	// Merge our top level configuration options in.
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.Region != "" {
		apiCfg.Region = cfg.Region
	}
	if cfg.Namespace != "" {
		apiCfg.Namespace = cfg.Namespace
	}
	if cfg.Token != "" {
		apiCfg.SecretID = cfg.Token
	}

	// Merge HTTP auth.
	if cfg.HTTPAuth != "" {
		apiCfg.HttpAuth = HTTPAuthFromString(cfg.HTTPAuth)
	}

	// Merge TLS. The default config has an empty TLS object and therefore does
	// not required a nil check.
	if cfg.CACert != "" {
		apiCfg.TLSConfig.CACert = cfg.CACert
	}
	if cfg.CAPath != "" {
		apiCfg.TLSConfig.CAPath = cfg.CAPath
	}
	if cfg.ClientCert != "" {
		apiCfg.TLSConfig.ClientCert = cfg.ClientCert
	}
	if cfg.ClientKey != "" {
		apiCfg.TLSConfig.ClientKey = cfg.ClientKey
	}
	if cfg.TLSServerName != "" {
		apiCfg.TLSConfig.TLSServerName = cfg.TLSServerName
	}
	if cfg.SkipVerify {
		apiCfg.TLSConfig.Insecure = cfg.SkipVerify
	}

	return apiCfg
}

// ExpandTLSPaths resolves a leading ~ in each of the TLS file paths of the
// passed config to the user's home directory.
func ExpandTLSPaths(tlsCfg *api.TLSConfig) error {
	if tlsCfg == nil {
		return nil
	}

	for _, p := range []*string{&tlsCfg.CACert, &tlsCfg.CAPath, &tlsCfg.ClientCert, &tlsCfg.ClientKey} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %v", *p, err)
		}
		*p = expanded
	}
	return nil
}
