// Package glbio serializes one tile's IndexedMesh (+materials) as a binary
// glTF 2.0 (GLB) buffer.
package glbio

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Options controls optional GLB extensions.
type Options struct {
	// UseMeshoptCompression marks EXT_meshopt_compression as required.
	// The accessors themselves are still written uncompressed; this flag
	// exists so callers that do apply meshopt post-processing can declare
	// the extension without this package needing to know the codec.
	UseMeshoptCompression bool
	// UseBasisU marks KHR_texture_basisu, used only when the atlas was
	// encoded as KTX2.
	UseBasisU bool
}

// Encode writes m (with its material m.Material and that material's
// textures, both looked up in lib) as a GLB buffer.
func Encode(m *mesh.IndexedMesh, lib *mesh.MaterialLibrary, opts Options) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("glbio: invalid mesh: %w", err)
	}

	doc := gltf.NewDocument()
	doc.Asset.Version = "2.0"

	prim := &gltf.Primitive{
		Attributes: make(map[string]uint32),
		Mode:       gltf.PrimitiveTriangles,
	}

	positions := toVec3(m.Positions)
	prim.Attributes[gltf.POSITION] = modeler.WritePosition(doc, positions)

	if m.HasNormals() {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, toVec3(m.Normals))
	}
	if m.HasUVs() {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, toVec2(m.UVs))
	}
	if m.HasColors() {
		prim.Attributes[gltf.COLOR_0] = modeler.WriteColor(doc, toVec4(m.Colors))
	}

	if len(m.Positions)/3 <= 65535 {
		idx16 := make([]uint16, len(m.Indices))
		for i, v := range m.Indices {
			idx16[i] = uint16(v)
		}
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, idx16))
	} else {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, m.Indices))
	}

	if m.Material >= 0 && lib != nil && m.Material < len(lib.Materials) {
		matIdx, err := writeMaterial(doc, lib, m.Material, opts)
		if err != nil {
			return nil, err
		}
		prim.Material = gltf.Index(matIdx)
	}

	meshIdx := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{prim}})
	nodeIdx := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(meshIdx)})
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{nodeIdx}}}
	doc.Scene = gltf.Index(0)

	if opts.UseMeshoptCompression {
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, "EXT_meshopt_compression")
		doc.ExtensionsRequired = append(doc.ExtensionsRequired, "EXT_meshopt_compression")
	}
	if opts.UseBasisU {
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, "KHR_texture_basisu")
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("glbio: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMaterial(doc *gltf.Document, lib *mesh.MaterialLibrary, idx int, opts Options) (uint32, error) {
	m := lib.Materials[idx]
	gm := &gltf.Material{
		Name: m.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &m.BaseColorFactor,
			MetallicFactor:  gltf.Float(m.MetallicFactor),
			RoughnessFactor: gltf.Float(m.RoughnessFactor),
		},
		AlphaMode:   gltf.AlphaMode(m.AlphaMode),
		AlphaCutoff: gltf.Float(m.AlphaCutoff),
		DoubleSided: m.DoubleSided,
	}
	if ref := m.BaseColorTexture; ref != nil && ref.Index < len(lib.Textures) {
		texIdx, err := writeTexture(doc, lib.Textures[ref.Index], opts)
		if err != nil {
			return 0, err
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: texIdx}
	}
	if ref := m.NormalTexture; ref != nil && ref.Index < len(lib.Textures) {
		texIdx, err := writeTexture(doc, lib.Textures[ref.Index], opts)
		if err != nil {
			return 0, err
		}
		gm.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(texIdx)}
	}
	doc.Materials = append(doc.Materials, gm)
	return uint32(len(doc.Materials) - 1), nil
}

func writeTexture(doc *gltf.Document, img mesh.TextureImage, opts Options) (uint32, error) {
	imgIdx, err := modeler.WriteImage(doc, "atlas", img.MIME, bytes.NewReader(img.Data))
	if err != nil {
		return 0, fmt.Errorf("glbio: embed texture: %w", err)
	}
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		WrapS: gltf.WrappingMode(img.WrapS),
		WrapT: gltf.WrappingMode(img.WrapT),
	})
	samplerIdx := uint32(len(doc.Samplers) - 1)
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Source:  gltf.Index(imgIdx),
		Sampler: gltf.Index(samplerIdx),
	})
	return uint32(len(doc.Textures) - 1), nil
}

func toVec3(flat []float32) [][3]float32 {
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out
}

func toVec2(flat []float32) [][2]float32 {
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		out[i] = [2]float32{flat[i*2], flat[i*2+1]}
	}
	return out
}

func toVec4(flat []float32) [][4]float32 {
	out := make([][4]float32, len(flat)/4)
	for i := range out {
		out[i] = [4]float32{flat[i*4], flat[i*4+1], flat[i*4+2], flat[i*4+3]}
	}
	return out
}
