// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"
	"math"
)

// Linear returns K(i,j) = x_i·x_j.
func Linear(ds *Dataset) func(i, j int) float64 {
	return func(i, j int) float64 { return ds.X[i].Dot(ds.X[j]) }
}

// RBF returns K(i,j) = exp(-gamma·|x_i - x_j|²).
func RBF(ds *Dataset, gamma float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		d := ds.squaredNorm(i) + ds.squaredNorm(j) - 2*ds.X[i].Dot(ds.X[j])
		if d < 0 {
			d = 0
		}

		return math.Exp(-gamma * d)
	}
}

// Polynomial returns K(i,j) = (gamma·x_i·x_j + coef0)^degree.
func Polynomial(ds *Dataset, degree int, gamma, coef0 float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		return math.Pow(gamma*ds.X[i].Dot(ds.X[j])+coef0, float64(degree))
	}
}

// ByName resolves a kernel name used in configuration files.
func ByName(ds *Dataset, name string, degree int, gamma, coef0 float64) (func(i, j int) float64, error) {
	switch name {
	case "linear":
		return Linear(ds), nil
	case "rbf":
		return RBF(ds, gamma), nil
	case "poly", "polynomial":
		return Polynomial(ds, degree, gamma, coef0), nil
	default:
		return nil, fmt.Errorf("kernel: unknown kernel %q", name)
	}
}
