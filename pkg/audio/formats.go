package audio

// Format constants shared by the codec, capture, and playback layers.
const (
	// Microphone capture.
	CaptureSampleRate = 16_000 // Hz
	CaptureChannels   = 1
	CaptureBlockSize  = 4_096                // samples per capture block
	CaptureBlockBytes = CaptureBlockSize * 2 // 16-bit PCM

	// Remote service output.
	PlaybackSampleRate = 24_000 // Hz
	PlaybackChannels   = 1

	BytesPerSample = 2 // 16-bit signed little-endian

	// MediaType tags outbound PCM frames for the transport.
	MediaType = "audio/pcm"
)
