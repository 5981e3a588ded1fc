package staticpress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 80

// OptimizeImage downscales a JPEG wider than maxWidth and re-encodes it.
// Non-JPEG assets and images already within bounds are returned untouched
// so static pass-through stays byte-for-byte whenever possible. The second
// return reports whether the bytes were rewritten.
func OptimizeImage(rel string, raw []byte, maxWidth int) ([]byte, bool, error) {
	if maxWidth <= 0 || !isJPEGPath(rel) {
		return raw, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("staticpress: decode image %s: %w", rel, err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return raw, false, nil
	}

	newH := h * maxWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, false, fmt.Errorf("staticpress: encode image %s: %w", rel, err)
	}
	return buf.Bytes(), true, nil
}

func isJPEGPath(rel string) bool {
	switch strings.ToLower(path.Ext(rel)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}
