package common

// WipeByteArray overwrites b with zeros. Used for password buffers read from
// the terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
