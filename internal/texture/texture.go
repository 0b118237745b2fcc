// Package texture encodes a repacked atlas image into one of the formats
// named by TilingConfig's texture_format option.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/webp"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Format selects the output codec for an atlas image.
type Format string

const (
	FormatWebP Format = "webp"
	FormatKTX2 Format = "ktx2"
	FormatPNG  Format = "png"
	FormatNone Format = "none"
)

// Encode compresses img per format/quality into a mesh.TextureImage ready
// to be embedded in a GLB. quality is 0-100 and only affects webp; the KTX2
// writer stores uncompressed pixels and ignores it.
func Encode(img image.Image, format Format, quality int) (mesh.TextureImage, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	switch format {
	case FormatNone:
		return mesh.TextureImage{}, nil
	case FormatWebP:
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, webp.Options{Quality: float32(clampQuality(quality))}); err != nil {
			return mesh.TextureImage{}, fmt.Errorf("texture: webp encode: %w", err)
		}
		return mesh.TextureImage{Data: buf.Bytes(), MIME: "image/webp", Width: w, Height: h, WrapS: 10497, WrapT: 10497}, nil
	case FormatPNG:
		// image/png has no ecosystem substitute in the retrieved pack for
		// lossless lossless-only output, so it is used directly here.
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return mesh.TextureImage{}, fmt.Errorf("texture: png encode: %w", err)
		}
		return mesh.TextureImage{Data: buf.Bytes(), MIME: "image/png", Width: w, Height: h, WrapS: 10497, WrapT: 10497}, nil
	case FormatKTX2:
		data, err := encodeKTX2(img, quality)
		if err != nil {
			return mesh.TextureImage{}, err
		}
		return mesh.TextureImage{Data: data, MIME: "image/ktx2", Width: w, Height: h, WrapS: 10497, WrapT: 10497}, nil
	default:
		return mesh.TextureImage{}, fmt.Errorf("texture: unknown format %q", format)
	}
}

// Decode decodes a TextureImage's raw encoded bytes back into an
// image.Image so the atlas repacker (C4) can composite from it. Dispatches
// on MIME type; this is the read-side counterpart of Encode, needed because
// the atlas repacker's source texture arrives as whatever format the
// mesh's MaterialLibrary originally carried.
func Decode(img mesh.TextureImage) (image.Image, error) {
	r := bytes.NewReader(img.Data)
	switch img.MIME {
	case "image/png":
		return png.Decode(r)
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("texture: decode: unsupported MIME %q", img.MIME)
	}
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}
