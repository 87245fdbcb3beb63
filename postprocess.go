package mmd2img

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// whiteKeyThreshold is the per-channel floor above which a pixel is
// considered background white and keyed out.
const whiteKeyThreshold = 0xF0

// keyWhiteTransparent converts near-white pixels of a PNG to fully
// transparent. Used when a transparent background is requested: themes
// may still paint white fills inside the diagram viewport, and the
// screenshot path cannot distinguish those from the page background.
func keyWhiteTransparent(pngData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostProcess, err)
	}

	img := imaging.Clone(src)
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		if r >= whiteKeyThreshold && g >= whiteKeyThreshold && b >= whiteKeyThreshold {
			img.Pix[i+3] = 0
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostProcess, err)
	}
	return buf.Bytes(), nil
}
