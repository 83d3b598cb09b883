package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// FloatSamplesToPCM16 converts float32 samples in [-1, 1] to little-endian
// signed 16-bit PCM bytes, clamping out-of-range values.
func FloatSamplesToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) 
	binary.Write(buf, binary.LittleEndian, uint16(2))            
	binary.Write(buf, binary.LittleEndian, uint16(16))           

	
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// ReadWavMono parses a mono 16-bit PCM WAV container, returning its samples
// as float32 in [-1, 1] and the file's sample rate. It walks the chunk list
// rather than assuming "fmt " and "data" are the first two chunks, since
// WAV files written by other tools commonly carry extra metadata chunks
// first.
func ReadWavMono(wav []byte) (samples []float32, sampleRate int, err error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("audio: not a RIFF/WAVE file")
	}

	var (
		channels      uint16
		bitsPerSample uint16
		havePCM       bool
		pcm           []byte
	)

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(wav) {
			size = len(wav) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("audio: fmt chunk too short")
			}
			channels = binary.LittleEndian.Uint16(wav[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bitsPerSample = binary.LittleEndian.Uint16(wav[body+14 : body+16])
		case "data":
			pcm = wav[body : body+size]
			havePCM = true
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !havePCM {
		return nil, 0, fmt.Errorf("audio: no data chunk found")
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("audio: unsupported bits per sample %d (want 16)", bitsPerSample)
	}
	if channels == 0 {
		channels = 1
	}

	frameBytes := 2 * int(channels)
	frames := len(pcm) / frameBytes
	samples = make([]float32, frames)
	for i := 0; i < frames; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*frameBytes : i*frameBytes+2]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, sampleRate, nil
}
