package synthesis

import (
	"bytes"
	"io"
)

// AudioStream is one complete, in-memory audio payload. It is created
// positioned at offset zero and belongs to the request that produced it.
type AudioStream struct {
	*bytes.Reader
	mediaType string
}

var (
	_ io.ReadSeeker = (*AudioStream)(nil)
	_ io.WriterTo   = (*AudioStream)(nil)
)

// newAudioStream takes ownership of data.
func newAudioStream(data []byte, mediaType string) *AudioStream {
	s := &AudioStream{Reader: bytes.NewReader(data), mediaType: mediaType}
	s.Seek(0, io.SeekStart)
	return s
}

// MediaType returns the MIME type of the payload.
func (s *AudioStream) MediaType() string { return s.mediaType }

// Position returns the current read offset.
func (s *AudioStream) Position() int64 {
	return s.Size() - int64(s.Len())
}
