package util

import "bytes"

// AudioFormat describes a container sniffed from the first bytes of a segment.
type AudioFormat struct {
	MIME      string
	Extension string
}

var (
	FormatWAV  = AudioFormat{MIME: "audio/wav", Extension: ".wav"}
	FormatOGG  = AudioFormat{MIME: "audio/ogg", Extension: ".ogg"}
	FormatWebM = AudioFormat{MIME: "audio/webm", Extension: ".webm"}
	FormatMP3  = AudioFormat{MIME: "audio/mpeg", Extension: ".mp3"}
	FormatFLAC = AudioFormat{MIME: "audio/flac", Extension: ".flac"}
)

// DetectAudioFormat falls back to WAV when the header is unknown.
func DetectAudioFormat(audio []byte) AudioFormat {
	switch {
	case len(audio) >= 12 && bytes.Equal(audio[0:4], []byte("RIFF")) && bytes.Equal(audio[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(audio, []byte("OggS")):
		return FormatOGG
	case bytes.HasPrefix(audio, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) >= 2 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatWAV
	}
}
