package video

import (
	"context"
	"fmt"
	"os/exec"
)

// Audio is extracted as 16 kHz mono PCM, the format the transcription and
// vocal-emotion models expect.
const (
	audioCodec      = "pcm_s16le"
	audioSampleRate = 16000
	audioChannels   = 1
)

// ExtractAudio pulls the audio track of videoPath into a WAV file at outPath.
func ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", videoPath,
		"-vn",
		"-acodec", audioCodec,
		"-ar", fmt.Sprintf("%d", audioSampleRate),
		"-ac", fmt.Sprintf("%d", audioChannels),
		"-v", "quiet",
		"-y",
		outPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audio extraction failed: %w (%.200s)", err, string(output))
	}
	return nil
}
