package wire

// Checksum computes the FIX tag 10 value: the sum of every byte in buf,
// modulo 256, as an int (Encode zero-pads it to three digits on the wire).
func Checksum(buf []byte) int {
	var sum int
	for _, b := range buf {
		sum += int(b)
	}
	return sum % 256
}
