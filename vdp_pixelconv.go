// vdp_pixelconv.go - framebuffer pixel format conversion (spec.md §6)
//
// The software and GPU paths both produce XRGB8888; legacy consumers want
// RGB565. Scaling (when a consumer asks for a different output size than
// the native render target, e.g. a host window that isn't driving the GPU
// upscale path) goes through golang.org/x/image/draw's scaler rather than a
// hand-rolled nearest/bilinear loop.

package saturn

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// packXRGB packs a plane of XRGB8888 words into a RenderedFrame's raw byte
// buffer, little-endian (so byte order in memory is B,G,R,X - spec.md §6).
func packXRGB(pixels []uint32, width, height int) RenderedFrame {
	out := make([]byte, len(pixels)*4)
	for i, p := range pixels {
		out[i*4+0] = byte(p)       // B
		out[i*4+1] = byte(p >> 8)  // G
		out[i*4+2] = byte(p >> 16) // R
		out[i*4+3] = byte(p >> 24) // X
	}
	return RenderedFrame{Pixels: out, Width: width, Height: height, Pitch: width * 4, Format: PixelFormatXRGB8888}
}

// ToRGB565 converts an XRGB8888 RenderedFrame to the legacy 16-bit path,
// high byte first on a little-endian host as the software conversion loop
// stores it (spec.md §6).
func ToRGB565(frame RenderedFrame) RenderedFrame {
	out := make([]byte, frame.Width*frame.Height*2)
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			off := y*frame.Pitch + x*4
			b, g, r := frame.Pixels[off], frame.Pixels[off+1], frame.Pixels[off+2]
			v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
			oo := (y*frame.Width + x) * 2
			out[oo] = byte(v >> 8)
			out[oo+1] = byte(v)
		}
	}
	return RenderedFrame{Pixels: out, Width: frame.Width, Height: frame.Height, Pitch: frame.Width * 2, Format: PixelFormatRGB565}
}

// ScaleXRGB resizes an XRGB8888 RenderedFrame to dstW x dstH using
// golang.org/x/image/draw's bilinear scaler, used by consumers that need a
// size other than the renderer's native or upscaled output.
func ScaleXRGB(frame RenderedFrame, dstW, dstH int) RenderedFrame {
	src := &image.NRGBA{
		Pix:    xrgbToNRGBA(frame.Pixels, frame.Width, frame.Height, frame.Pitch),
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := make([]byte, dstW*dstH*4)
	for i := 0; i < dstW*dstH; i++ {
		r, g, b, _ := color.NRGBA{R: dst.Pix[i*4], G: dst.Pix[i*4+1], B: dst.Pix[i*4+2], A: dst.Pix[i*4+3]}.RGBA()
		out[i*4+0] = byte(b >> 8)
		out[i*4+1] = byte(g >> 8)
		out[i*4+2] = byte(r >> 8)
		out[i*4+3] = 0xFF
	}
	return RenderedFrame{Pixels: out, Width: dstW, Height: dstH, Pitch: dstW * 4, Format: PixelFormatXRGB8888}
}

func xrgbToNRGBA(pixels []byte, width, height, pitch int) []byte {
	out := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := y*pitch + x*4
			oo := (y*width + x) * 4
			b, g, r := pixels[off], pixels[off+1], pixels[off+2]
			out[oo+0], out[oo+1], out[oo+2], out[oo+3] = r, g, b, 0xFF
		}
	}
	return out
}
