package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorustyt/gosubsurf/common/message"
	"github.com/gorustyt/gosubsurf/common/rw"
	"github.com/gorustyt/gosubsurf/debug_utils"
	"github.com/gorustyt/gosubsurf/demo/config"
	"github.com/gorustyt/gosubsurf/demo/mesh"
	"github.com/gorustyt/gosubsurf/subsurf"
	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"
)

type subdivideFlags struct {
	configPath string
	levels     int
	normals    bool
	simple     bool
	obj        string
	snapshot   string
	normalMaps string
	stats      string
	check      bool
	logLevel   string
	logFile    string
}

// Stats is the JSON summary written by --stats.
type Stats struct {
	Input      string  `json:"input"`
	Levels     int     `json:"levels"`
	Verts      int     `json:"verts"`
	Edges      int     `json:"edges"`
	Faces      int     `json:"faces"`
	Grids      int     `json:"grids"`
	FinalVerts int     `json:"final_verts"`
	FinalEdges int     `json:"final_edges"`
	FinalFaces int     `json:"final_faces"`
	SyncMillis float64 `json:"sync_ms"`
}

func newSubdivideCmd() *cobra.Command {
	var flags subdivideFlags
	cmd := &cobra.Command{
		Use:   "subdivide <input.obj>",
		Short: "Subdivide an OBJ cage and export the finest level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return runSubdivide(args[0], cfg)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	f.IntVarP(&flags.levels, "levels", "l", 2, "subdivision levels")
	f.BoolVar(&flags.normals, "normals", true, "compute vertex normals")
	f.BoolVar(&flags.simple, "simple", false, "split faces without smoothing")
	f.StringVarP(&flags.obj, "out", "o", "", "write the finest level as OBJ")
	f.StringVar(&flags.snapshot, "snapshot", "", "write the finest grids as a protobuf snapshot")
	f.StringVar(&flags.normalMaps, "normal-maps", "", "directory for per-face normal map TIFFs")
	f.StringVar(&flags.stats, "stats", "", "write JSON statistics")
	f.BoolVar(&flags.check, "check", false, "verify topology and shared samples")
	f.StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")
	f.StringVar(&flags.logFile, "log-file", "", "also log to this rotated file")
	return cmd
}

// loadConfig reads the config file, if any, and applies the flags the user
// set explicitly on top of it.
func loadConfig(cmd *cobra.Command, flags *subdivideFlags) (*config.Config, error) {
	cfg := config.NewConfig()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return nil, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("levels") || flags.configPath == "" {
		cfg.Subdiv.Levels = flags.levels
	}
	if changed("normals") {
		cfg.Subdiv.Normals = flags.normals
	}
	if changed("simple") {
		cfg.Subdiv.Simple = flags.simple
	}
	if changed("out") {
		cfg.Output.Obj = flags.obj
	}
	if changed("snapshot") {
		cfg.Output.Snapshot = flags.snapshot
	}
	if changed("normal-maps") {
		cfg.Output.NormalMapDir = flags.normalMaps
	}
	if changed("stats") {
		cfg.Output.Stats = flags.stats
	}
	if changed("check") {
		cfg.Output.Check = flags.check
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = flags.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func runSubdivide(input string, cfg *config.Config) error {
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cage, err := mesh.Load(input)
	if err != nil {
		return err
	}
	ss, err := subsurf.New(cfg.Subdiv.SubSurfConfig(log))
	if err != nil {
		return err
	}
	defer ss.Free()

	start := time.Now()
	if err := cage.Sync(ss, log); err != nil {
		return err
	}
	elapsed := time.Since(start)
	log.Info("subdivided",
		zap.String("input", input),
		zap.Int("levels", ss.SubdivisionLevels()),
		zap.Int("finalFaces", ss.NumFinalFaces()),
		zap.Duration("elapsed", elapsed))

	if cfg.Output.Check {
		if err := debug_utils.CheckConsistency(ss, 1e-4, log); err != nil {
			return err
		}
	}
	if cfg.Output.Obj != "" {
		w := rw.NewWriter()
		if err := debug_utils.DumpGridsToObj(ss, w, cfg.Output.ObjNormals && cfg.Subdiv.Normals, log); err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Output.Obj, w.GetWriteBytes(), 0o644); err != nil {
			return err
		}
	}
	if cfg.Output.Snapshot != "" {
		if err := os.WriteFile(cfg.Output.Snapshot, message.Encode(debug_utils.Snapshot(ss)), 0o644); err != nil {
			return err
		}
	}
	if cfg.Output.NormalMapDir != "" {
		if err := writeNormalMaps(ss, cfg.Output.NormalMapDir); err != nil {
			return err
		}
	}
	if cfg.Output.Stats != "" {
		st := Stats{
			Input:      input,
			Levels:     ss.SubdivisionLevels(),
			Verts:      ss.NumVerts(),
			Edges:      ss.NumEdges(),
			Faces:      ss.NumFaces(),
			Grids:      ss.NumGrids(),
			FinalVerts: ss.NumFinalVerts(),
			FinalEdges: ss.NumFinalEdges(),
			FinalFaces: ss.NumFinalFaces(),
			SyncMillis: float64(elapsed.Microseconds()) / 1000,
		}
		data, err := sonnet.Marshal(&st)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Output.Stats, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeNormalMaps(ss *subsurf.SubSurf, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range ss.Faces() {
		out, err := os.Create(filepath.Join(dir, fmt.Sprintf("face_%d.tiff", f.Handle())))
		if err != nil {
			return err
		}
		err = debug_utils.WriteNormalTIFF(out, ss, f)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
