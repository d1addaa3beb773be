// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package nomad

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/nomad-rest-client/config"
	"github.com/hashicorp/nomad/api"
	"github.com/mitchellh/go-homedir"
	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/assert"
)

func Test_HTTPAuthFromString(t *testing.T) {
	testCases := []struct {
		inputAuth      string
		expectedOutput *api.HttpBasicAuth
	}{
		{
			inputAuth:      "",
			expectedOutput: nil,
		},
		{
			inputAuth:      "just-a-username",
			expectedOutput: &api.HttpBasicAuth{Username: "just-a-username"},
		},
		{
			inputAuth:      "username:password",
			expectedOutput: &api.HttpBasicAuth{Username: "username", Password: "password"},
		},
		{
			inputAuth:      "username:pass:word",
			expectedOutput: &api.HttpBasicAuth{Username: "username", Password: "pass:word"},
		},
	}

	for _, tc := range testCases {
		actualOutput := HTTPAuthFromString(tc.inputAuth)
		assert.Equal(t, tc.expectedOutput, actualOutput)
	}
}

func Test_MergeDefaultWithConfig(t *testing.T) {
	t.Setenv("NOMAD_ADDR", "http://env.nomad:4646")
	t.Setenv("NOMAD_REGION", "")
	t.Setenv("NOMAD_NAMESPACE", "")
	t.Setenv("NOMAD_TOKEN", "env-token")

	// Env values are kept when the config does not override them.
	apiCfg := MergeDefaultWithConfig(&config.Nomad{Region: "espana"})
	must.Eq(t, "http://env.nomad:4646", apiCfg.Address)
	must.Eq(t, "espana", apiCfg.Region)
	must.Eq(t, "env-token", apiCfg.SecretID)

	apiCfg = MergeDefaultWithConfig(&config.Nomad{
		Address:       "https://vlc.nomad:4646",
		Namespace:     "picassent",
		Token:         "my-precious",
		HTTPAuth:      "username:password",
		CACert:        "/etc/nomad.d/ca.crt",
		CAPath:        "/etc/nomad.d/",
		ClientCert:    "/etc/nomad.d/client.crt",
		ClientKey:     "/etc/nomad.d/client.key",
		TLSServerName: "lord-of-the-servers",
		SkipVerify:    true,
	})
	must.Eq(t, "https://vlc.nomad:4646", apiCfg.Address)
	must.Eq(t, "picassent", apiCfg.Namespace)
	must.Eq(t, "my-precious", apiCfg.SecretID)
	must.Eq(t, &api.HttpBasicAuth{Username: "username", Password: "password"}, apiCfg.HttpAuth)
	must.Eq(t, "/etc/nomad.d/ca.crt", apiCfg.TLSConfig.CACert)
	must.Eq(t, "/etc/nomad.d/", apiCfg.TLSConfig.CAPath)
	must.Eq(t, "/etc/nomad.d/client.crt", apiCfg.TLSConfig.ClientCert)
	must.Eq(t, "/etc/nomad.d/client.key", apiCfg.TLSConfig.ClientKey)
	must.Eq(t, "lord-of-the-servers", apiCfg.TLSConfig.TLSServerName)
	must.True(t, apiCfg.TLSConfig.Insecure)

	must.NotNil(t, MergeDefaultWithConfig(nil))
}

func Test_ExpandTLSPaths(t *testing.T) {
	home, err := homedir.Dir()
	must.NoError(t, err)

	tlsCfg := &api.TLSConfig{
		CACert:     "~/nomad/ca.pem",
		ClientCert: "/etc/nomad.d/client.crt",
	}
	must.NoError(t, ExpandTLSPaths(tlsCfg))
	must.Eq(t, filepath.Join(home, "nomad/ca.pem"), tlsCfg.CACert)
	must.Eq(t, "/etc/nomad.d/client.crt", tlsCfg.ClientCert)
	must.Eq(t, "", tlsCfg.ClientKey)

	must.NoError(t, ExpandTLSPaths(nil))
}
