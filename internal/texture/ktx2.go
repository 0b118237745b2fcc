package texture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/draw"
)

// ktx2Identifier is the fixed 12-byte file signature from the KTX2 spec.
var ktx2Identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '2', '0', 0xBB, '\r', '\n', 0x1A, '\n'}

// vkFormatR8G8B8A8Unorm is the Vulkan format enum value for uncompressed
// 8-bit RGBA, used because this encoder does not perform block compression.
const vkFormatR8G8B8A8Unorm = 37

// encodeKTX2 writes a minimal single-level, uncompressed KTX2 container:
// the 12-byte identifier, a header following the KTX2 field layout, and
// one mip level of raw RGBA8 pixels. This intentionally does not implement
// supercompression (zstd/basis) or the full data-format-descriptor chain —
// texture_format=ktx2 is a secondary path behind webp, and no basis/KTX2
// encoder was available to build a fuller implementation against.
func encodeKTX2(img image.Image, _ int) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	var out bytes.Buffer
	out.Write(ktx2Identifier[:])

	header := struct {
		VkFormat                                                       uint32
		TypeSize                                                       uint32
		PixelWidth, PixelHeight, PixelDepth                            uint32
		LayerCount, FaceCount, LevelCount                               uint32
		SupercompressionScheme                                         uint32
	}{
		VkFormat:   vkFormatR8G8B8A8Unorm,
		TypeSize:   1,
		PixelWidth: uint32(w), PixelHeight: uint32(h), PixelDepth: 0,
		LayerCount: 0, FaceCount: 1, LevelCount: 1,
		SupercompressionScheme: 0,
	}
	_ = binary.Write(&out, binary.LittleEndian, header)

	levelOffset := uint64(out.Len() + 24) // the level-index entry itself is 24 bytes
	levelLength := uint64(len(rgba.Pix))
	_ = binary.Write(&out, binary.LittleEndian, struct{ Offset, Length, UncompressedLength uint64 }{
		Offset: levelOffset, Length: levelLength, UncompressedLength: levelLength,
	})

	out.Write(rgba.Pix)
	return out.Bytes(), nil
}
