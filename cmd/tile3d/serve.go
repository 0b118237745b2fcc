package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/CAFxX/httpcompression"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/cobra"

	"github.com/joeblew999/tile3d/internal/catalog"
	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/tileset"
	"github.com/joeblew999/tile3d/internal/validate"
	"github.com/joeblew999/tile3d/internal/webui"
	"github.com/joeblew999/tile3d/internal/xform"
)

func newServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the validate/status/progress HTTP surface for tile3d builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dataDir)
		},
	}
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8087, "Port to listen on")
	cmd.Flags().StringVar(&dataDir, "data-dir", ".data", "Directory for the build catalog (DuckDB)")
	return cmd
}

func runServe(host string, port int, dataDir string) error {
	db, err := catalog.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	hub := webui.NewHub()
	runner := &buildRunner{db: db, hub: hub}

	mux := http.NewServeMux()
	humaConfig := huma.DefaultConfig("tile3d API", "0.1.0")
	humaConfig.Info.Description = "Tiling-core status, validation, and progress surface for tile3d builds."
	humaConfig.Servers = []*huma.Server{{URL: fmt.Sprintf("http://%s:%d", host, port)}}
	api := humago.New(mux, humaConfig)
	registerAPIRoutes(api, runner)

	mux.HandleFunc("/progress/", func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Path[len("/progress/"):]
		if !hub.ServeProgress(w, r, runID) {
			http.NotFound(w, r)
		}
	})

	handler, err := wrapCompression(mux)
	if err != nil {
		return fmt.Errorf("compression middleware: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("tile3d serve: listening on http://%s", addr)
	return http.ListenAndServe(addr, handler)
}

// wrapCompression adds response compression to the API surface. No
// reference usage of CAFxX/httpcompression was available to ground this
// call against, so it's built from the library's documented
// DefaultAdapter() convention; see DESIGN.md.
func wrapCompression(h http.Handler) (http.Handler, error) {
	adapter, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}
	return adapter(h), nil
}

type healthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type validateInput struct {
	Body struct {
		Dir string `json:"dir" required:"true" doc:"Tileset output directory to validate"`
	}
}

type validateOutput struct {
	Body struct {
		OK        bool     `json:"ok"`
		TileCount int      `json:"tileCount"`
		Problems  []string `json:"problems,omitempty"`
	}
}

type statusInput struct {
	RunID string `path:"runID"`
}

type statusOutput struct {
	Body catalog.RunStats
}

type buildInput struct {
	Body struct {
		Input  string `json:"input" required:"true" doc:"Path to the input mesh (JSON snapshot or OBJ)"`
		Out    string `json:"out" required:"true" doc:"Output directory for tileset.json and tiles/"`
		Config string `json:"config,omitempty" doc:"Optional TilingConfig YAML path"`
	}
}

type buildOutput struct {
	Body struct {
		RunID string `json:"runId"`
	}
}

// registerAPIRoutes wires /health, /validate, /status/{runID}, and /build
// onto api, using the same huma.Get/huma.Post registration idiom throughout.
func registerAPIRoutes(api huma.API, runner *buildRunner) {
	huma.Get(api, "/health", func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})

	huma.Post(api, "/validate", func(ctx context.Context, in *validateInput) (*validateOutput, error) {
		report, err := validate.Dir(in.Body.Dir)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		out := &validateOutput{}
		out.Body.OK = report.OK()
		out.Body.TileCount = report.TileCount
		for _, p := range report.Problems {
			out.Body.Problems = append(out.Body.Problems, p.Error())
		}
		return out, nil
	})

	huma.Get(api, "/status/{runID}", func(ctx context.Context, in *statusInput) (*statusOutput, error) {
		stats, err := catalog.Stats(runner.db, in.RunID)
		if err != nil {
			return nil, huma.Error404NotFound(err.Error())
		}
		return &statusOutput{Body: stats}, nil
	})

	huma.Post(api, "/build", func(ctx context.Context, in *buildInput) (*buildOutput, error) {
		runID := uuid.NewString()
		if err := runner.start(runID, in.Body.Input, in.Body.Out, in.Body.Config); err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		out := &buildOutput{}
		out.Body.RunID = runID
		return out, nil
	})
}

// buildRunner owns the catalog connection and progress hub used to launch
// and track build runs kicked off via POST /build.
type buildRunner struct {
	db  *sql.DB
	hub *webui.Hub
}

func (r *buildRunner) start(runID, inputPath, outDir, configPath string) error {
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
		return err
	}
	lib := &mesh.MaterialLibrary{Materials: []mesh.Material{mesh.DefaultMaterial()}}
	m.Material = 0
	box := mesh.MeshBounds(m)

	if err := catalog.BeginRun(r.db, runID, inputPath, outDir); err != nil {
		return err
	}

	events := make(chan tileset.Event, 256)
	r.hub.Register(runID, events)

	go func() {
		defer r.hub.Forget(runID)
		transform := xform.ENUToECEF(0, 0, 0)
		result, err := tileset.Build(m, lib, box, tileset.BuildOptions{
			Config:    cfg,
			OutDir:    outDir,
			Transform: (*[16]float64)(&transform),
			Events:    events,
		})
		if err != nil {
			log.Printf("tile3d serve: run %s failed: %v", runID, err)
			return
		}
		if err := tileset.WriteTilesetJSON(result.Root, (*[16]float64)(&transform), outDir); err != nil {
			log.Printf("tile3d serve: run %s: write tileset.json: %v", runID, err)
		}
		if err := catalog.FinishRun(r.db, runID); err != nil {
			log.Printf("tile3d serve: run %s: finish: %v", runID, err)
		}
	}()
	return nil
}
