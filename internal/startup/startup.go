package startup

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"aigen-index/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const rule = "------------------------------------------------------------"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

// PrintBanner writes the program name and build to w.
func PrintBanner(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s\n  aigen-index %s (%s, built %s)\n  generated image library indexer\n%s\n",
		rule, Version, Commit, BuildTime, rule)
}

// LogSystemInfo logs runtime and host information.
func LogSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:            %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected; extraction pools are sized from GOMAXPROCS)")
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:        %s", hostname)
	}
}

// LogDatabaseInit logs the opened index and its schema version.
func LogDatabaseInit(path string, schemaVersion uint, duration time.Duration) {
	section("INDEX DATABASE")
	logging.Info("  Path:            %s", path)
	logging.Info("  Schema version:  %d", schemaVersion)
	logging.Info("  [OK] Opened and migrated in %v", duration.Round(time.Millisecond))
}

// LogIndexerInit logs the scan roots and how they will be scanned.
func LogIndexerInit(c *Config) {
	section("INDEXER")
	if len(c.ScanRoots) == 0 {
		logging.Warn("  No scan roots configured; the index only changes through the scan command")
	}
	for _, root := range c.ScanRoots {
		logging.Info("  Root:            %s", root)
	}
	logging.Info("  Rescan:          %s", intervalString(c.ScanInterval))
	logging.Info("  Change polling:  %s", intervalString(c.PollInterval))
	logging.Info("  Extract workers: %s", workersString(c.ExtractWorkers))
	logging.Info("  Verify decode:   %v", c.VerifyDecode)
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Scheduler started, initial scan running in background")
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists the routes registered on router, sorted by path and
// method. Routes without a method restriction are reported as "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, err
}

// routeGroup names the group a route path is listed under: the first path
// segment, or the first two for /api routes.
func routeGroup(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if segments[0] == "api" && len(segments) > 1 {
		return "api/" + segments[1]
	}
	return segments[0]
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by
// routeGroup, and the access log settings.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		logging.Debug("  Registered routes (%d total):", len(routes))

		current := "\x00"
		for _, route := range routes {
			if group := routeGroup(route.Path); group != current {
				current = group
				if group == "" {
					group = "root"
				}
				logging.Debug("  [%s]", group)
			}
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	if logHealthChecks {
		logging.Info("  Access log: ON (health checks included)")
	} else {
		logging.Info("  Access log: ON (health checks omitted; set LOG_HEALTH_CHECKS=true to include)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration.Round(time.Millisecond))
	logging.Info("  Query API:       http://0.0.0.0:%s/api/folders", config.Port)
	logging.Info("  Scan trigger:    POST http://0.0.0.0:%s/api/scan", config.Port)
	logging.Info("  Health:          http://0.0.0.0:%s/healthz", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info(rule)
}

// Shutdown logs the steps of a graceful shutdown.
type Shutdown struct {
	start  time.Time
	failed int
}

// BeginShutdown logs why the process is stopping and starts timing the
// shutdown.
func BeginShutdown(reason string) *Shutdown {
	section(fmt.Sprintf("SHUTDOWN INITIATED (%s)", reason))
	return &Shutdown{start: time.Now()}
}

// Step runs fn and logs its outcome. The error from fn is returned so the
// caller can collect it; later steps still run.
func (s *Shutdown) Step(name string, fn func() error) error {
	logging.Debug("  %s...", name)
	started := time.Now()
	if err := fn(); err != nil {
		s.failed++
		logging.Warn("  [FAIL] %s: %v", name, err)
		return err
	}
	logging.Info("  [OK] %s (%v)", name, time.Since(started).Round(time.Millisecond))
	return nil
}

// Complete logs the end of the shutdown.
func (s *Shutdown) Complete() {
	if s.failed > 0 {
		logging.Warn("  Shutdown finished with %d failed step(s) in %v", s.failed, time.Since(s.start).Round(time.Millisecond))
		return
	}
	logging.Info("  [OK] Shutdown complete in %v", time.Since(s.start).Round(time.Millisecond))
}
