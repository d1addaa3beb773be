// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ptr

func BoolToPtr(b bool) *bool {
	return &b
}

func IntToPtr(i int) *int {
	return &i
}

func Int64ToPtr(i int64) *int64 {
	return &i
}

func StringToPtr(s string) *string {
	return &s
}

// PtrToString dereferences s, returning the empty string for nil. Nomad API
// objects use pointer fields for most job attributes.
func PtrToString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
