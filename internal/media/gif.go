package media

import (
	"fmt"
	"image/gif"
	"os"
)

// defaultFrameDelay is used for frames that carry no delay, in ms.
const defaultFrameDelay = 100

// GIFDuration returns the summed frame delays of the GIF at path in
// milliseconds. A single-frame GIF has duration 0.
func GIFDuration(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(g.Image) <= 1 {
		return 0, nil
	}

	total := 0
	for _, d := range g.Delay {
		if d <= 0 {
			total += defaultFrameDelay
			continue
		}
		total += d * 10 // delays are in 1/100 s
	}
	return total, nil
}
