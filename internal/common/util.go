// Package common holds small helpers shared across client layers.
package common

// WipeByteArray zeroes a sensitive byte slice in place. Callers should
// defer it as soon as a secret is read.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
