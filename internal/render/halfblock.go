package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in the
// background, giving two square-ish pixels per cell
const upperHalf = "▀"

// Options controls how a page is laid out in the terminal
type Options struct {
	Width      int // columns available
	Height     int // rows available, used by fit-height
	Fit        domain.ImageFit
	Brightness int // percent
	HalfTone   bool
}

// OptionsFor builds render options from reader settings and a viewport
func OptionsFor(s domain.ReaderSettings, width, height int) Options {
	s = s.Normalize()
	if s.ContainerWidth > 0 && s.ContainerWidth < width {
		width = s.ContainerWidth
	}
	return Options{
		Width:      width,
		Height:     height,
		Fit:        s.Fit,
		Brightness: s.Brightness,
		HalfTone:   s.HalfTone,
	}
}

// Decode decodes JPEG, PNG, GIF and WebP data
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %v", domain.ErrMalformedResponse, err)
	}
	return img, nil
}

// Size returns the pixel size of the scaled image. A cell holds one pixel
// across and two down.
func Size(src image.Rectangle, opts Options) (int, int) {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || opts.Width <= 0 {
		return 0, 0
	}

	w := opts.Width
	h := sh * w / sw
	if opts.Fit == domain.FitHeight && opts.Height > 0 {
		h = opts.Height * 2
		w = sw * h / sh
		if w > opts.Width {
			w = opts.Width
			h = sh * w / sw
		}
	}
	return max(w, 1), max(h, 1)
}

// Scale resizes img for the terminal
func Scale(img image.Image, opts Options) *image.RGBA {
	w, h := Size(img.Bounds(), opts)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Adjust applies brightness (percent) and optional grayscale to one pixel
func Adjust(c color.RGBA, brightness int, halfTone bool) color.RGBA {
	scale := func(v uint8) uint8 {
		out := int(v) * brightness / 100
		if out > 255 {
			return 255
		}
		return uint8(out)
	}

	r, g, b := scale(c.R), scale(c.G), scale(c.B)
	if halfTone {
		y := uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
		r, g, b = y, y, y
	}
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// Image renders img as rows of half-block cells
func Image(img image.Image, opts Options) string {
	if opts.Brightness == 0 {
		opts.Brightness = 100
	}
	scaled := Scale(img, opts)
	bounds := scaled.Bounds()

	var sb strings.Builder
	for y := 0; y < bounds.Dy(); y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < bounds.Dx(); x++ {
			top := Adjust(scaled.RGBAAt(x, y), opts.Brightness, opts.HalfTone)
			style := lipgloss.NewStyle().Foreground(hex(top))
			if y+1 < bounds.Dy() {
				bottom := Adjust(scaled.RGBAAt(x, y+1), opts.Brightness, opts.HalfTone)
				style = style.Background(hex(bottom))
			}
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}
