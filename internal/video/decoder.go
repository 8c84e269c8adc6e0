package video

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os/exec"
)

// Frames are resized to this fixed analysis resolution before measurement so
// blur and proximity values stay comparable across input resolutions. Frozen;
// changing it invalidates score comparability with previously stored runs.
const (
	AnalysisWidth  = 1020
	AnalysisHeight = 500
)

// DefaultFPS is assumed when the container does not report a frame rate.
const DefaultFPS = 30.0

// Frame is one decoded frame at the analysis resolution, RGB24.
type Frame struct {
	Index  int
	Width  int
	Height int
	RGB    []byte // len = Width*Height*3
}

// Gray returns the luma plane of the frame as float64 values in [0,255].
func (f *Frame) Gray() []float64 {
	gray := make([]float64, f.Width*f.Height)
	for i := range gray {
		r := float64(f.RGB[i*3])
		g := float64(f.RGB[i*3+1])
		b := float64(f.RGB[i*3+2])
		gray[i] = 0.299*r + 0.587*g + 0.114*b
	}
	return gray
}

// JPEG encodes the frame for the image-consuming model capabilities.
func (f *Frame) JPEG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := (y*f.Width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: f.RGB[i], G: f.RGB[i+1], B: f.RGB[i+2], A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// FrameSource yields decoded frames in order. Next returns io.EOF after the
// last frame. Close must be called on every source, on every exit path.
type FrameSource interface {
	Info() Info
	Next() (*Frame, error)
	Close() error
}

// Opener opens a video file as a FrameSource. The pipeline depends on this
// interface so tests can substitute synthetic frame sources.
type Opener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// FFmpegOpener decodes via the ffmpeg binary, streaming raw RGB24 frames
// scaled to the analysis resolution over a pipe.
type FFmpegOpener struct{}

func NewFFmpegOpener() *FFmpegOpener {
	return &FFmpegOpener{}
}

func (o *FFmpegOpener) Open(ctx context.Context, path string) (FrameSource, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", path,
		"-vf", fmt.Sprintf("scale=%d:%d", AnalysisWidth, AnalysisHeight),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-v", "quiet",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", ErrUnreadable, err)
	}

	return &ffmpegSource{
		info:   *info,
		cmd:    cmd,
		reader: bufio.NewReaderSize(stdout, AnalysisWidth*AnalysisHeight*3),
	}, nil
}

type ffmpegSource struct {
	info   Info
	cmd    *exec.Cmd
	reader *bufio.Reader
	index  int
	closed bool
}

func (s *ffmpegSource) Info() Info {
	return s.info
}

func (s *ffmpegSource) Next() (*Frame, error) {
	buf := make([]byte, AnalysisWidth*AnalysisHeight*3)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame %d: %w", s.index, err)
	}

	frame := &Frame{
		Index:  s.index,
		Width:  AnalysisWidth,
		Height: AnalysisHeight,
		RGB:    buf,
	}
	s.index++
	return frame, nil
}

func (s *ffmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}
