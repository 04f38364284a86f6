package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/praxis-map/internal/geo"
	"github.com/sells-group/praxis-map/internal/pipeline"
)

var (
	servePort int
	serveDir  string
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rendered map for local preview",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		dir := serveDir
		if dir == "" {
			dir = filepath.Dir(cfg.Map.HTMLPath)
		}
		files := mapFiles{HTML: filepath.Join(dir, filepath.Base(cfg.Map.HTMLPath))}
		if cfg.Map.GeoJSONPath != "" {
			files.GeoJSON = filepath.Join(dir, filepath.Base(cfg.Map.GeoJSONPath))
		}
		if cfg.Map.ShapefilePath != "" {
			files.Shapefile = filepath.Join(dir, filepath.Base(cfg.Map.ShapefilePath))
		}
		if cfg.Map.ReportPath != "" {
			files.Report = filepath.Join(dir, filepath.Base(cfg.Map.ReportPath))
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newServeRouter(files),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port), zap.String("map", files.HTML))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

// mapFiles are the artifacts exposed by the preview server.
type mapFiles struct {
	HTML      string
	GeoJSON   string
	Shapefile string
	Report    string
}

func newServeRouter(files mapFiles) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		serveArtifact(w, req, files.HTML, "text/html; charset=utf-8")
	})

	r.Get("/markers.geojson", func(w http.ResponseWriter, req *http.Request) {
		if files.GeoJSON != "" && exists(files.GeoJSON) {
			serveArtifact(w, req, files.GeoJSON, "application/geo+json")
			return
		}
		if files.Shapefile != "" && exists(files.Shapefile) {
			serveShapefile(w, files.Shapefile)
			return
		}
		http.Error(w, "no marker output found: configure map.geojson_path or map.shapefile_path", http.StatusNotFound)
	})

	r.Get("/report", func(w http.ResponseWriter, _ *http.Request) {
		if files.Report == "" || !exists(files.Report) {
			http.Error(w, "no geocode report found: configure map.report_path", http.StatusNotFound)
			return
		}
		serveReport(w, files.Report)
	})

	return r
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// serveShapefile converts the shapefile's points to GeoJSON on the fly.
func serveShapefile(w http.ResponseWriter, path string) {
	points, err := geo.ReadShapefile(path)
	if err != nil {
		zap.L().Error("read shapefile", zap.String("path", path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := geo.EncodeGeoJSON(w, points); err != nil {
		zap.L().Error("encode geojson", zap.String("path", path), zap.Error(err))
	}
}

// reportSummary is the JSON body of /report.
type reportSummary struct {
	Total  int                  `json:"total"`
	Mapped int                  `json:"mapped"`
	Rows   []pipeline.ReportRow `json:"rows"`
}

func serveReport(w http.ResponseWriter, path string) {
	rows, err := pipeline.ReadReport(path)
	if err != nil {
		zap.L().Error("read report", zap.String("path", path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	summary := reportSummary{Total: len(rows), Rows: rows}
	for _, row := range rows {
		if row.Mapped {
			summary.Mapped++
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func serveArtifact(w http.ResponseWriter, req *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "not found: run the map command first", http.StatusNotFound)
			return
		}
		zap.L().Error("open artifact", zap.String("path", path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, req, filepath.Base(path), info.ModTime(), f)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "directory holding the map files (default: next to map.html_path)")
	rootCmd.AddCommand(serveCmd)
}
