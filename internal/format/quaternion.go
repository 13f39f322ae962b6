package format

// QuaternionToMatrix converts a quaternion in {w, x, y, z} order into a 16
// element row-major 4x4 rotation matrix.
//
// The input does not need to be unit length; every term is divided by the
// squared norm. A degenerate quaternion (squared norm <= 1e-6) or an input
// that is not 4 values long returns the identity matrix.
func QuaternionToMatrix(q []float32) []float32 {
	result := make([]float32, 16)
	result[0], result[5], result[10], result[15] = 1, 1, 1, 1

	if len(q) != 4 {
		return result
	}

	a, b, c, d := q[0], q[1], q[2], q[3]

	aa := a * a
	ab := a * b
	ac := a * c
	ad := a * d
	bb := b * b
	bc := b * c
	bd := b * d
	cc := c * c
	cd := c * d
	dd := d * d

	norm := aa + bb + cc + dd
	if norm <= 1e-6 {
		return result
	}

	result[0] = (aa + bb - cc - dd) / norm
	result[1] = 2 * (-ad + bc) / norm
	result[2] = 2 * (ac + bd) / norm
	result[4] = 2 * (ad + bc) / norm
	result[5] = (aa - bb + cc - dd) / norm
	result[6] = 2 * (-ab + cd) / norm
	result[8] = 2 * (-ac + bd) / norm
	result[9] = 2 * (ab + cd) / norm
	result[10] = (aa - bb - cc + dd) / norm

	return result
}
