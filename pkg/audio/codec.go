// Package audio provides pure sample-format conversion between float32
// buffers and 16-bit signed little-endian PCM, plus the base64 framing the
// realtime transport uses for binary payloads.
package audio

import (
	"encoding/base64"
	"encoding/binary"
)

// DecodeError reports malformed inbound audio data. It is always
// recoverable: the caller drops the chunk and keeps the session alive.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "audio decode: " + e.Reason
}

// EncodePCM16 converts float samples in [-1.0, 1.0] to 16-bit signed
// little-endian PCM bytes. Out-of-range samples are clamped. Negative
// values use the full negative scale (32768), non-negative values the full
// positive scale (32767), so -1.0 and 1.0 both map to full deflection.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s < -1.0 {
			s = -1.0
		} else if s > 1.0 {
			s = 1.0
		}

		var v int16
		if s < 0 {
			v = int16(s * 32768)
		} else {
			v = int16(s * 32767)
		}

		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(v))
	}

	return out
}

// DecodePCM16 converts 16-bit signed little-endian PCM bytes back to float
// samples in [-1.0, 1.0]. The byte length must be a multiple of 2.
func DecodePCM16(b []byte) ([]float32, error) {
	if len(b)%BytesPerSample != 0 {
		return nil, &DecodeError{Reason: "PCM byte length is not a multiple of 2"}
	}

	samples := make([]float32, len(b)/BytesPerSample)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(b[i*BytesPerSample:]))
		samples[i] = float32(v) / 32768.0
	}

	return samples, nil
}

// EncodeBase64 wraps PCM bytes in the transport-safe text encoding.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 reverses EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64 payload: " + err.Error()}
	}

	return b, nil
}
