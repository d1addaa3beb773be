// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/assert"
)

func Test_IsTemporaryFile(t *testing.T) {
	testCases := []struct {
		testName       string
		inputName      string
		expectedReturn bool
	}{
		{
			testName:       "vim temp input file",
			inputName:      "client.hcl~",
			expectedReturn: true,
		},
		{
			testName:       "emacs temp input file 1",
			inputName:      ".#client.hcl",
			expectedReturn: true,
		},
		{
			testName:       "emacs temp input file 2",
			inputName:      "#client.hcl#",
			expectedReturn: true,
		},
		{
			testName:       "non-temp input file",
			inputName:      "client.hcl",
			expectedReturn: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			assert.Equal(t, tc.expectedReturn, IsTemporaryFile(tc.inputName))
		})
	}
}

func TestGetFileListFromDir(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.json", "a.hcl", "notes.txt", "c.hcl~"} {
		must.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600))
	}
	must.NoError(t, os.Mkdir(filepath.Join(dir, "nested.hcl"), 0o700))

	files, err := GetFileListFromDir(dir, ".hcl", ".json")
	must.NoError(t, err)
	must.Eq(t, []string{filepath.Join(dir, "a.hcl"), filepath.Join(dir, "b.json")}, files)

	files, err = GetFileListFromDir(dir)
	must.NoError(t, err)
	must.Eq(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "notes.txt"),
	}, files)

	_, err = GetFileListFromDir(filepath.Join(dir, "a.hcl"), ".hcl")
	must.Error(t, err)
}
