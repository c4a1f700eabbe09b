// Package compress shrinks captured bitmaps to fit the inline-image
// byte budget, trading resolution and JPEG quality in fixed stages.
package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

const (
	// BudgetBytes is the inline payload ceiling: 950 KiB.
	BudgetBytes = 950 * 1024

	// QualityFloor is the lowest quality the step-down ladder reaches.
	QualityFloor = 20

	qualityStep = 10

	fullWidth   = 1920
	midWidth    = 1280
	smallWidth  = 800
	midQuality  = 60
	lastQuality = 50
)

// Output reports what the pipeline produced. WithinBudget false means
// every stage was exhausted and Data is the best (smallest) attempt.
type Output struct {
	Data         []byte
	Quality      int
	Width        int
	Height       int
	Resized      bool
	WithinBudget bool
	Encodes      int
}

var logger = logging.L("compress")

// ToBudget encodes img as JPEG within BudgetBytes. Oversized images are
// first capped at 1920px wide, then quality steps down by 10 to the
// floor, then two coarser renditions (1280px at q60, 800px at q50) are
// tried, each resized from the original bitmap so no stage re-encodes
// lossy output. The stage list is fixed, so the encode count is bounded
// (nine at the default quality of 80).
func ToBudget(img image.Image, quality int) (*Output, error) {
	quality = clampQuality(quality)

	src := toRGBA(img)
	origWidth := src.Bounds().Dx()

	working := src
	if origWidth > fullWidth {
		working = scaleToWidth(src, fullWidth)
	}

	out := &Output{Quality: quality, Width: working.Bounds().Dx(), Height: working.Bounds().Dy()}
	out.Resized = out.Width != origWidth

	data, err := encodeJPEG(working, quality)
	if err != nil {
		return nil, fmt.Errorf("encode at quality %d: %w", quality, err)
	}
	out.Encodes++
	out.Data = data
	if len(data) <= BudgetBytes {
		out.WithinBudget = true
		return out, nil
	}

	for q := quality - qualityStep; q >= QualityFloor; q -= qualityStep {
		data, err = encodeJPEG(working, q)
		if err != nil {
			return nil, fmt.Errorf("encode at quality %d: %w", q, err)
		}
		out.Encodes++
		out.Data = data
		out.Quality = q
		if len(data) <= BudgetBytes {
			out.WithinBudget = true
			return out, nil
		}
	}

	for _, stage := range []struct {
		width   int
		quality int
	}{
		{midWidth, midQuality},
		{smallWidth, lastQuality},
	} {
		scaled := src
		if origWidth > stage.width {
			scaled = scaleToWidth(src, stage.width)
		}
		data, err = encodeJPEG(scaled, stage.quality)
		if err != nil {
			return nil, fmt.Errorf("encode at %dpx q%d: %w", stage.width, stage.quality, err)
		}
		out.Encodes++
		out.Data = data
		out.Quality = stage.quality
		out.Width = scaled.Bounds().Dx()
		out.Height = scaled.Bounds().Dy()
		out.Resized = out.Width != origWidth
		if len(data) <= BudgetBytes {
			out.WithinBudget = true
			return out, nil
		}
	}

	logger.Warn("image exceeds budget after all stages",
		"bytes", len(out.Data), "width", out.Width, "quality", out.Quality)
	return out, nil
}

// PNGToBudget decodes PNG bytes and runs them through ToBudget.
func PNGToBudget(data []byte, quality int) (*Output, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return ToBudget(img, quality)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// encodeJPEG encodes an image as JPEG at the given quality (1-100).
// The result is copied out because the encode buffer goes back to the pool.
func encodeJPEG(img *image.RGBA, quality int) ([]byte, error) {
	buf := getEncodeBuffer()
	defer putEncodeBuffer(buf)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())
	return data, nil
}

// scaleToWidth shrinks an image to the given width, preserving aspect
// ratio. Nearest-neighbor is plenty for screenshots and keeps text
// edges crisp enough to read.
func scaleToWidth(img *image.RGBA, width int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dx() <= width {
		return img
	}

	factor := float64(width) / float64(bounds.Dx())
	newHeight := int(float64(bounds.Dy()) * factor)
	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, newHeight))

	xRatio := float64(bounds.Dx()) / float64(width)
	yRatio := float64(bounds.Dy()) / float64(newHeight)

	for y := 0; y < newHeight; y++ {
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + int(float64(x)*xRatio)
			srcY := bounds.Min.Y + int(float64(y)*yRatio)
			scaled.Set(x, y, img.At(srcX, srcY))
		}
	}

	return scaled
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
