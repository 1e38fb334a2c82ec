// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

// Temperature converts a mean intensity into °C.
//
// It is the linear interpolation mean/255*(r.Max-r.Min)+r.Min. The input is
// not clamped: a mean outside [0, 255] extrapolates to a temperature outside
// r. Callers that can't trust their input must validate it.
//
// Temperature(0, r) is exactly r.Min and Temperature(255, r) is exactly r.Max,
// and the result is monotonically non-decreasing in mean.
func Temperature(mean float64, r Range) float64 {
	t := mean / 255.
	v := t*(r.Max-r.Min) + r.Min
	// Floating point rounding could land just below r.Max near t==1 which
	// would break monotonicity around the upper bound.
	switch {
	case t == 1:
		return r.Max
	case t < 1:
		if v > r.Max {
			return r.Max
		}
	default:
		if v < r.Max {
			return r.Max
		}
	}
	return v
}
