package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// ReadOBJ parses a single-material OBJ stream into an IndexedMesh. Only
// `v`, `vn`, `vt`, and `f` lines are understood (faces with more than
// three vertices are fan-triangulated); materials,
// groups, and smoothing are ignored, matching this package's role as a
// thin ingestion stand-in rather than a full OBJ implementation.
func ReadOBJ(r io.Reader) (*mesh.IndexedMesh, error) {
	var positions, normals [][3]float32
	var uvs [][2]float32
	b := mesh.NewBuilder()
	seen := make(map[string]uint32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<24)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: obj vertex: %w", err)
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: obj normal: %w", err)
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseFloat2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: obj uv: %w", err)
			}
			uvs = append(uvs, uv)
		case "f":
			if err := addFace(b, seen, fields[1:], positions, normals, uvs); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("meshio: obj scan: %w", err)
	}
	return b.Build(-1), nil
}

func addFace(b *mesh.Builder, seen map[string]uint32, tokens []string, positions, normals [][3]float32, uvs [][2]float32) error {
	idx := make([]uint32, len(tokens))
	for i, tok := range tokens {
		if existing, ok := seen[tok]; ok {
			idx[i] = existing
			continue
		}
		v, err := parseFaceVertex(tok, positions, normals, uvs)
		if err != nil {
			return err
		}
		ni := b.AddVertex(v)
		seen[tok] = ni
		idx[i] = ni
	}
	for i := 1; i+1 < len(idx); i++ {
		b.AddTriangle(idx[0], idx[i], idx[i+1])
	}
	return nil
}

func parseFaceVertex(tok string, positions, normals [][3]float32, uvs [][2]float32) (mesh.Vertex, error) {
	parts := strings.Split(tok, "/")
	pi, err := parseIndex(parts[0], len(positions))
	if err != nil {
		return mesh.Vertex{}, fmt.Errorf("meshio: obj face position index: %w", err)
	}
	p := positions[pi]
	v := mesh.Vertex{Position: [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}}
	if len(parts) > 1 && parts[1] != "" {
		ti, err := parseIndex(parts[1], len(uvs))
		if err != nil {
			return mesh.Vertex{}, fmt.Errorf("meshio: obj face uv index: %w", err)
		}
		uv := uvs[ti]
		v.UV = [2]float64{float64(uv[0]), float64(uv[1])}
		v.HasUV = true
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := parseIndex(parts[2], len(normals))
		if err != nil {
			return mesh.Vertex{}, fmt.Errorf("meshio: obj face normal index: %w", err)
		}
		n := normals[ni]
		v.Normal = [3]float64{float64(n[0]), float64(n[1]), float64(n[2])}
		v.HasNormal = true
	}
	return v, nil
}

// parseIndex resolves an OBJ 1-based (or negative, relative) index into a
// 0-based slice index.
func parseIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = count + n
	} else {
		n--
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("index %d out of range for %d entries", n, count)
	}
	return n, nil
}

func parseFloat3(fields []string) ([3]float32, error) {
	if len(fields) < 3 {
		return [3]float32{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseFloat2(fields []string) ([2]float32, error) {
	if len(fields) < 2 {
		return [2]float32{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	var out [2]float32
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(f)
	}
	return out, nil
}
