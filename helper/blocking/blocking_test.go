// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_indexHasChange(t *testing.T) {
	testCases := []struct {
		newValue       uint64
		oldValue       uint64
		expectedReturn bool
	}{
		{
			newValue:       13,
			oldValue:       7,
			expectedReturn: true,
		},
		{
			newValue:       13696,
			oldValue:       13696,
			expectedReturn: false,
		},
		{
			newValue:       7,
			oldValue:       13,
			expectedReturn: false,
		},
	}

	for _, tc := range testCases {
		res := IndexHasChanged(tc.newValue, tc.oldValue)
		assert.Equal(t, tc.expectedReturn, res)
	}
}

func Test_findMaxFound(t *testing.T) {
	testCases := []struct {
		newValue       int64
		oldValue       int64
		expectedReturn int64
	}{
		{
			newValue:       5,
			oldValue:       0,
			expectedReturn: 5,
		},
		{
			newValue:       4096,
			oldValue:       4096,
			expectedReturn: 4096,
		},
		{
			newValue:       0,
			oldValue:       4096,
			expectedReturn: 4096,
		},
	}

	for _, tc := range testCases {
		res := FindMaxFound(tc.newValue, tc.oldValue)
		assert.Equal(t, tc.expectedReturn, res)
	}
}
