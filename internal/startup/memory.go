package startup

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"aigen-index/internal/logging"
)

// DefaultMemoryRatio is the share of the container memory limit given to the
// Go heap. The rest covers goroutine stacks and decoder scratch buffers.
const DefaultMemoryRatio = 0.85

// MemoryConfig describes how the Go memory limit was configured.
type MemoryConfig struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureMemoryLimit sets the Go soft memory limit from MEMORY_LIMIT
// (bytes, e.g. from the Kubernetes Downward API) scaled by MEMORY_RATIO.
// An explicit GOMEMLIMIT wins. Call it before the scanner starts decoding.
func ConfigureMemoryLimit() MemoryConfig {
	if os.Getenv("GOMEMLIMIT") != "" {
		result := MemoryConfig{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		return MemoryConfig{Source: "none"}
	}
	memLimit, err := strconv.ParseInt(memLimitStr, 10, 64)
	if err != nil || memLimit <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q, GOMEMLIMIT not configured", memLimitStr)
		return MemoryConfig{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		parsed, err := strconv.ParseFloat(ratioStr, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	return MemoryConfig{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// LogMemoryConfig logs the outcome of ConfigureMemoryLimit.
func LogMemoryConfig(mc MemoryConfig) {
	switch mc.Source {
	case "GOMEMLIMIT":
		logging.Info("  Memory limit:    %s (GOMEMLIMIT)", formatBytes(mc.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Memory limit:    %s (%.0f%% of %s container limit)",
			formatBytes(mc.GoMemLimit), mc.Ratio*100, formatBytes(mc.ContainerLimit))
	default:
		logging.Debug("  Memory limit:    not configured (set MEMORY_LIMIT or GOMEMLIMIT)")
	}
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
