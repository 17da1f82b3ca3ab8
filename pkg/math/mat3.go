package math

// Mat3 is a 3x3 matrix in row-major order, the order frame files store
// orientations in.
type Mat3 [9]float32

// Identity3 returns a 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Mat4 widens m into a column-major 4x4 matrix with no translation.
func (m Mat3) Mat4() Mat4 {
	return Mat4{
		m[0], m[3], m[6], 0,
		m[1], m[4], m[7], 0,
		m[2], m[5], m[8], 0,
		0, 0, 0, 1,
	}
}
