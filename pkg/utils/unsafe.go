// Package utils holds zero-copy conversions for hot-path handling of
// fasthttp's byte-slice paths and query arguments.
package utils

import "unsafe"

// UnsafeBytes returns a byte view of s. The result must not be mutated.
func UnsafeBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// UnsafeString returns a string view of b. The result is only valid while b
// is not reused.
func UnsafeString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
