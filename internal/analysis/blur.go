package analysis

import "github.com/promoscope/promoscope/internal/video"

// BlurVariance computes the variance of the Laplacian of the grayscale
// frame. Higher values mean a sharper frame. The 4-neighbor Laplacian is
// evaluated over interior pixels only.
func BlurVariance(frame *video.Frame) float64 {
	gray := frame.Gray()
	w, h := frame.Width, frame.Height
	if w < 3 || h < 3 {
		return 0
	}

	n := (w - 2) * (h - 2)
	lap := make([]float64, 0, n)
	sum := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := gray[i-w] + gray[i+w] + gray[i-1] + gray[i+1] - 4*gray[i]
			lap = append(lap, v)
			sum += v
		}
	}

	mean := sum / float64(n)
	variance := 0.0
	for _, v := range lap {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}
