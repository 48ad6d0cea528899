// Package audio buffers per-session call audio and assembles the final
// recording artifact.
package audio

import "encoding/binary"

// Recording artifact format: mono 16-bit linear PCM at 24 kHz.
const (
	SampleRate    = 24000
	BitsPerSample = 16
	Channels      = 1
)

// EncodeWAV wraps raw PCM data with a 44-byte RIFF/WAVE header. Zero-length
// data still yields a structurally valid container.
func EncodeWAV(pcmData []byte, sampleRate, bitsPerSample, channels int) []byte {
	dataLen := len(pcmData)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, 44)

	// RIFF chunk descriptor
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")

	// fmt sub-chunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM sub-chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))

	// data sub-chunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return append(header, pcmData...)
}

// DurationSeconds estimates playback length of raw PCM data in the artifact
// format.
func DurationSeconds(pcmBytes int) float64 {
	bytesPerSecond := SampleRate * Channels * BitsPerSample / 8
	return float64(pcmBytes) / float64(bytesPerSecond)
}
