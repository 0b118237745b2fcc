package mesh

// AlphaMode mirrors the glTF material alpha modes.
type AlphaMode string

const (
	AlphaOpaque AlphaMode = "OPAQUE"
	AlphaMask   AlphaMode = "MASK"
	AlphaBlend  AlphaMode = "BLEND"
)

// TextureRef points at a texture slot within a MaterialLibrary, with the
// sampler's UV set always 0 for this system (no multi-UV support).
type TextureRef struct {
	Index int
}

// Material is a PBR metallic-roughness material, matching the glTF 2.0
// material model so it can be written to a GLB with no semantic translation.
type Material struct {
	Name                string
	BaseColorFactor     [4]float32
	MetallicFactor      float32
	RoughnessFactor     float32
	BaseColorTexture    *TextureRef
	MetallicRoughnessTex *TextureRef
	NormalTexture       *TextureRef
	AlphaMode           AlphaMode
	AlphaCutoff         float32
	DoubleSided         bool
}

// DefaultMaterial returns a neutral white, fully-rough, fully-metallic
// (factor 1), opaque, single-sided material — the glTF default.
func DefaultMaterial() Material {
	return Material{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		AlphaMode:       AlphaOpaque,
		AlphaCutoff:     0.5,
	}
}

// TextureImage is one encoded texture: raw bytes plus enough metadata to
// describe it without decoding.
type TextureImage struct {
	Data     []byte
	MIME     string
	Width    int
	Height   int
	WrapS    int // glTF sampler wrap enum, 10497 = REPEAT
	WrapT    int
	MinFilter int
	MagFilter int
}

// MaterialLibrary is a sequence of materials and their referenced texture
// images, shared read-only across the whole tile tree for the lifetime of
// one tiling run.
type MaterialLibrary struct {
	Materials []Material
	Textures  []TextureImage
}

// Clone returns a library sharing the same Textures/Materials slices — safe
// because the library is never mutated after construction; per-tile
// material indices are recomputed separately by the tileset builder, which
// gives each tile its own single-material library, rather than by mutating
// this structure.
func (l *MaterialLibrary) Clone() *MaterialLibrary {
	return &MaterialLibrary{Materials: l.Materials, Textures: l.Textures}
}
