package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
	"aigen-index/internal/startup"

	"golang.org/x/term"
)

// maxPromptWidth truncates prompts in the images table.
const maxPromptWidth = 60

// wantJSON reports whether output to w should be JSON: always with --json,
// and whenever w is not an interactive terminal.
func wantJSON(w io.Writer, forceJSON bool) bool {
	if forceJSON {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printFolders(w io.Writer, folders []database.Folder) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPATH")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, f.Path)
	}
	return tw.Flush()
}

func printImages(w io.Writer, images []database.Image) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSIZE\tBYTES\tPROMPT")
	for _, img := range images {
		m := img.Metadata
		prompt := ""
		if m.Generation != nil {
			prompt = truncate(m.Generation.Prompt, maxPromptWidth)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%d\t%s\n",
			img.ID, img.Name, m.Format, m.Width, m.Height, m.FileSize, prompt)
	}
	return tw.Flush()
}

func printSummaries(w io.Writer, summaries []*indexer.Summary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ROOT\tFOLDERS +/~/-\tIMAGES +/~/-\tTOUCHED\tUNCHANGED\tERRORS\tDURATION")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d/%d/%d\t%d/%d/%d\t%d\t%d\t%d\t%s\n",
			s.Root,
			s.FoldersInserted, s.FoldersUpdated, s.FoldersDeleted,
			s.ImagesInserted, s.ImagesUpdated, s.ImagesDeleted,
			s.ImagesTouched, s.ImagesUnchanged,
			len(s.ExtractionErrors)+len(s.StoreErrors),
			s.Duration().Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range summaries {
		for _, e := range s.ExtractionErrors {
			fmt.Fprintf(w, "  skipped %s (%s): %s\n", e.Path, e.Kind, e.Message)
		}
		for _, e := range s.StoreErrors {
			fmt.Fprintf(w, "  failed %s (%s): %s\n", e.Path, e.Kind, e.Message)
		}
		for _, path := range s.SkippedFolders {
			fmt.Fprintf(w, "  kept folder %s\n", path)
		}
		for _, path := range s.SymlinksSkipped {
			fmt.Fprintf(w, "  symlink not followed %s\n", path)
		}
	}
	return nil
}

func printStats(w io.Writer, stats database.Stats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Folders:\t%d\n", stats.Folders)
	fmt.Fprintf(tw, "Root folders:\t%d\n", stats.RootFolders)
	fmt.Fprintf(tw, "Images:\t%d\n", stats.Images)
	fmt.Fprintf(tw, "Total bytes:\t%d\n", stats.TotalBytes)

	formats := make([]string, 0, len(stats.ImagesByFormat))
	for format := range stats.ImagesByFormat {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		fmt.Fprintf(tw, "  %s:\t%d\n", format, stats.ImagesByFormat[format])
	}
	return tw.Flush()
}

func printBuildInfo(w io.Writer, info startup.BuildInfo) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Version:\t%s\n", info.Version)
	fmt.Fprintf(tw, "Commit:\t%s\n", info.Commit)
	fmt.Fprintf(tw, "Built:\t%s\n", info.BuildTime)
	fmt.Fprintf(tw, "Go:\t%s\n", info.GoVersion)
	fmt.Fprintf(tw, "Platform:\t%s/%s\n", info.OS, info.Arch)
	return tw.Flush()
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
