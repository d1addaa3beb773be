// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ptr

import (
	"testing"

	"github.com/shoenig/test/must"
)

func TestPtrHelpers(t *testing.T) {
	must.True(t, *BoolToPtr(true))
	must.Eq(t, 13, *IntToPtr(13))
	must.Eq(t, int64(-3), *Int64ToPtr(-3))
	must.Eq(t, "example", *StringToPtr("example"))
	must.Eq(t, "example", PtrToString(StringToPtr("example")))
	must.Eq(t, "", PtrToString(nil))
}
