package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// PCM is a decoded audio payload ready for the device: signed 16-bit
// little-endian samples, interleaved by channel.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// ErrBadWAV is returned when a payload cannot be decoded as WAV.
var ErrBadWAV = errors.New("invalid wav payload")

// DecodeWAV decodes a WAV payload into 16-bit PCM. Source bit depths other
// than 16 are rescaled so the device format stays fixed.
func DecodeWAV(data []byte) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrBadWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav payload: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrBadWAV
	}

	shift := int(dec.BitDepth) - 16
	out := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		v := sample
		// 8-bit WAV samples are unsigned; recenter before scaling.
		if dec.BitDepth == 8 {
			v -= 128
		}
		if shift > 0 {
			v >>= shift
		} else if shift < 0 {
			v <<= -shift
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}

	return &PCM{
		Data:       out,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}
