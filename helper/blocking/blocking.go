// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package blocking

import "cmp"

// IndexHasChanged is used to check whether a returned long-poll response
// carries an updated index or offset, compared to a tracked value.
func IndexHasChanged[T cmp.Ordered](new, old T) bool { return new > old }

// FindMaxFound is used to determine which value passed is the greatest. This
// is used to track the most recently found highest index or offset value so
// that a tracked position never moves backwards.
func FindMaxFound[T cmp.Ordered](new, old T) T {
	if new <= old {
		return old
	}
	return new
}
