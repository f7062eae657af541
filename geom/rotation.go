package geom

import (
	. "math"

	"gonum.org/v1/gonum/mat"
)

// EulerMatrix creates a 3D rotation matrix from the Z-X-Z Euler angles
// alpha, beta and gamma.
func EulerMatrix(alpha, beta, gamma float64) *mat.Dense {
	cA, sA := Cos(alpha), Sin(alpha)
	cB, sB := Cos(beta), Sin(beta)
	cC, sC := Cos(gamma), Sin(gamma)

	return mat.NewDense(3, 3, []float64{
		cC*cA - cB*sA*sC, cC*sA + cB*cA*sC, sC * sB,
		-sC*cA - cB*sA*cC, -sC*sA + cB*cA*cC, cC * sB,
		sB * sA, -sB * cA, cB,
	})
}

// Rotate applies the rotation matrix m to v.
func Rotate(m mat.Matrix, v [3]float64) [3]float64 {
	in := mat.NewVecDense(3, v[:])
	out := mat.NewVecDense(3, nil)
	out.MulVec(m, in)
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}
