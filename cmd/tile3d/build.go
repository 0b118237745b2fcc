package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/cobra"

	"github.com/joeblew999/tile3d/internal/catalog"
	"github.com/joeblew999/tile3d/internal/config"
	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/meshio"
	"github.com/joeblew999/tile3d/internal/tileset"
	"github.com/joeblew999/tile3d/internal/xform"
)

func newBuildCmd() *cobra.Command {
	var (
		outDir          string
		configPath      string
		dataDir         string
		scale           float64
		swapYZ          bool
		debugFootprints bool
	)

	cmd := &cobra.Command{
		Use:   "build <input>",
		Short: "Tile a mesh (JSON snapshot or OBJ) into an OGC 3D Tiles 1.1 tileset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], outDir, configPath, dataDir, xform.Config{Scale: scale, SwapYZ: swapYZ, Translate: [3]float64{}}, debugFootprints)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "Output directory for tileset.json and tiles/")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a TilingConfig YAML file (defaults to config.Default())")
	cmd.Flags().BoolVar(&debugFootprints, "debug-footprints", false, "Also write footprints.geojson, a GIS-viewable footprint per tile")
	cmd.Flags().StringVar(&dataDir, "data-dir", ".data", "Directory for the build catalog (DuckDB)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Uniform scale applied to input positions before tiling")
	cmd.Flags().BoolVar(&swapYZ, "swap-yz", false, "Swap Y/Z axes (Y-up input -> Z-up output)")
	return cmd
}

func runBuild(inputPath, outDir, configPath, dataDir string, xcfg xform.Config, debugFootprints bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Threads == 0 {
		cfg.Threads = cpuid.CPU.LogicalCores
		if cfg.Threads < 1 {
			cfg.Threads = 1
		}
	}

	m, err := loadMesh(inputPath)
	if err != nil {
		return fmt.Errorf("load mesh: %w", err)
	}
	xform.ApplyPositions(m.Positions, xcfg)
	xform.ApplyNormals(m.Normals, xcfg)

	lib := &mesh.MaterialLibrary{Materials: []mesh.Material{mesh.DefaultMaterial()}}
	m.Material = 0
	box := mesh.MeshBounds(m)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	db, err := catalog.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	runID := uuid.NewString()
	if err := catalog.BeginRun(db, runID, inputPath, outDir); err != nil {
		return err
	}

	events := make(chan tileset.Event, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			logEvent(ev)
			if ev.Kind == tileset.EventNodeWritten || ev.Kind == tileset.EventNodeFailed {
				// Events carry no byte size or geometric error, so those
				// columns are recorded as 0.
				rec := catalog.TileRecord{RunID: runID, Address: ev.Address, Level: ev.Level, TriangleCount: ev.Triangles, TextureFormat: cfg.TextureFormat}
				if ev.Err != nil {
					rec.Error = ev.Err.Error()
				}
				if err := catalog.RecordTile(db, rec); err != nil {
					log.Printf("tile3d: catalog: %v", err)
				}
			}
		}
	}()

	transform := xform.ENUToECEF(0, 0, 0)
	result, err := tileset.Build(m, lib, box, tileset.BuildOptions{
		Config:    cfg,
		OutDir:    outDir,
		Transform: (*[16]float64)(&transform),
		Events:    events,
	})
	<-done
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if err := tileset.WriteTilesetJSON(result.Root, (*[16]float64)(&transform), outDir); err != nil {
		return err
	}
	if debugFootprints {
		if err := tileset.WriteDebugFootprints(result.Root, outDir); err != nil {
			log.Printf("tile3d: debug footprints: %v", err)
		}
	}
	if err := catalog.FinishRun(db, runID); err != nil {
		return err
	}

	log.Printf("tile3d: run %s complete: %d failures, tileset at %s", runID, len(result.Failures), filepath.Join(outDir, "tileset.json"))
	for _, f := range result.Failures {
		log.Printf("tile3d: %s", f.Error())
	}
	return nil
}

func loadConfig(path string) (config.TilingConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadMesh(path string) (*mesh.IndexedMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return meshio.ReadOBJ(f)
	default:
		return meshio.ReadSnapshot(f)
	}
}

func logEvent(ev tileset.Event) {
	switch ev.Kind {
	case tileset.EventNodeWritten:
		log.Printf("tile3d: wrote %s (level %d, %d triangles)", ev.Address, ev.Level, ev.Triangles)
	case tileset.EventNodeFailed:
		log.Printf("tile3d: %s failed: %v", ev.Address, ev.Err)
	case tileset.EventBuildComplete:
		log.Printf("tile3d: build complete")
	}
}

