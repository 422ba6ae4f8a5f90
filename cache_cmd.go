package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/fileid"
)

// File ids are long; the table shows a prefix unless --full is set.
const idDisplayWidth = 32

var (
	fullIDs bool

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect the file id cache",
		Long: paragraph(fmt.Sprintf("\n%s the Telegram file ids of the audio files already uploaded by the bot. "+
			"Stop the bot before changing the cache.", keyword("Inspect"))),
		Args: cobra.NoArgs,
	}

	cacheListCmd = &cobra.Command{
		Use:   "list",
		Short: "List cached file ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}
			return writeCacheList(cmd.OutOrStdout(), cache, stdoutIsTerminal())
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached file id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}
			n := cache.Len()
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from %s\n", n, cache.Path())
			return nil
		},
	}

	cachePathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the file id store location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.StorePath)
		},
	}

	cacheExportCmd = &cobra.Command{
		Use:     "export FILE",
		Short:   "Write the cached file ids to a file",
		Long:    paragraph("\nWrite the cached file ids to FILE, or to stdout when FILE is -. Files ending in .zst are zstd compressed."),
		Example: paragraph("aoe2-telegram-bot cache export ids.json.zst"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}
			return exportCache(cmd.OutOrStdout(), cache, args[0])
		},
	}

	cacheImportCmd = &cobra.Command{
		Use:   "import FILE",
		Short: "Merge file ids from an export into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			n, err := cache.Import(f)
			if err != nil {
				return fmt.Errorf("unable to import %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries, the cache now holds %d\n", n, cache.Len())
			return nil
		},
	}
)

func init() {
	cacheListCmd.Flags().BoolVar(&fullIDs, "full", false, "show complete file ids")
}

func openCache() (*fileid.Cache, error) {
	cache := fileid.New(cfg.StorePath)
	if err := cache.Load(); err != nil {
		return nil, err
	}
	return cache, nil
}

// writeCacheList prints the cache entries sorted by file name, as a table
// when styled is set and as tab separated lines otherwise.
func writeCacheList(w io.Writer, cache *fileid.Cache, styled bool) error {
	ids := cache.All()
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	slices.Sort(names)

	if !styled {
		for _, name := range names {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", name, ids[name]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(names) == 0 {
		_, err := fmt.Fprintln(w, paragraph(faintStyle.Render("No file id cached in "+cache.Path())))
		return err
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		id := ids[name]
		if !fullIDs {
			id = runewidth.Truncate(id, idDisplayWidth, "…")
		}
		rows = append(rows, []string{name, id})
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", styledTable([]string{"File", "File id"}, rows), storeSummary(cache))
	return err
}

func storeSummary(cache *fileid.Cache) string {
	summary := fmt.Sprintf("%s entries in %s", humanize.Comma(int64(cache.Len())), cache.Path())
	if info, err := os.Stat(cache.Path()); err == nil {
		summary += fmt.Sprintf(" (%s)", humanize.Bytes(uint64(info.Size()))) //nolint:gosec
	}
	return faintStyle.Render(summary)
}

func exportCache(stdout io.Writer, cache *fileid.Cache, name string) error {
	if name == "-" {
		return cache.Export(stdout, false)
	}

	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create directory: %w", err)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := cache.Export(f, strings.HasSuffix(name, ".zst")); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(name); err == nil {
		fmt.Fprintf(stdout, "Wrote %d entries to %s (%s)\n", cache.Len(), name, humanize.Bytes(uint64(info.Size()))) //nolint:gosec
	}
	return nil
}
