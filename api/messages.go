package api

import "google.golang.org/protobuf/types/known/wrapperspb"

// MaxPeek is the largest block PeekMemory returns.
const MaxPeek = 0x1000

// Input encodes a StreamInput message: the controller port in bits 8-15
// and the button mask (bit n is controller.Button n) in bits 0-7.
func Input(port int, mask byte) *wrapperspb.UInt32Value {
	return wrapperspb.UInt32(uint32(port&0xFF)<<8 | uint32(mask))
}

// ParseInput decodes a StreamInput message.
func ParseInput(v *wrapperspb.UInt32Value) (port int, mask byte) {
	x := v.GetValue()
	return int(x >> 8 & 0xFF), byte(x)
}

// Peek encodes a PeekMemory request for n bytes starting at addr. The
// address is in bits 0-15 and the length in bits 16-31; a length of 0
// reads one byte.
func Peek(addr uint16, n int) *wrapperspb.UInt32Value {
	return wrapperspb.UInt32(uint32(n&0xFFFF)<<16 | uint32(addr))
}

// ParsePeek decodes a PeekMemory request, clamping the length to
// [1, MaxPeek].
func ParsePeek(v *wrapperspb.UInt32Value) (addr uint16, n int) {
	x := v.GetValue()
	n = int(x >> 16)
	switch {
	case n == 0:
		n = 1
	case n > MaxPeek:
		n = MaxPeek
	}
	return uint16(x), n
}
