package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/fileid"
)

var (
	audioCmd = &cobra.Command{
		Use:   "audio",
		Short: "Inspect the audio directory",
		Args:  cobra.NoArgs,
	}

	audioListCmd = &cobra.Command{
		Use:       "list [sounds|taunts|civilizations]...",
		Short:     "List the audio files the bot can send",
		Long:      paragraph(fmt.Sprintf("\n%s the files of the audio directory by kind, with their size and whether Telegram already knows them.", keyword("List"))),
		Example:   paragraph("aoe2-telegram-bot audio list\naoe2-telegram-bot audio list taunts --audio-dir ~/aoe2/audio"),
		ValidArgs: []string{"sounds", "taunts", "civilizations"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := audio.Kinds()
			if len(args) > 0 {
				kinds = kinds[:0:0]
				for _, arg := range args {
					k, err := audio.ParseKind(arg)
					if err != nil {
						return err
					}
					kinds = append(kinds, k)
				}
			}

			cache, err := openCache()
			if err != nil {
				return err
			}
			return writeAudioList(cmd.OutOrStdout(), audio.NewLibrary(cfg.AudioDir), cache, kinds, stdoutIsTerminal())
		},
	}
)

// writeAudioList prints the files of each kind. Styled output is one table
// per kind; plain output is one "kind<TAB>name<TAB>size<TAB>cached" line per
// file.
func writeAudioList(w io.Writer, lib *audio.Library, cache *fileid.Cache, kinds []audio.Kind, styled bool) error {
	for _, kind := range kinds {
		files, err := lib.Files(kind)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(files))
		for _, f := range files {
			size := "?"
			if info, err := os.Stat(f); err == nil {
				size = humanize.Bytes(uint64(info.Size())) //nolint:gosec
			}
			cached := "no"
			if _, ok := cache.Get(f); ok {
				cached = "yes"
			}
			rows = append(rows, []string{audio.Stem(f), size, cached})
		}

		if !styled {
			for _, r := range rows {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, r[0], r[1], r[2]); err != nil {
					return err
				}
			}
			continue
		}

		title := keyword(fmt.Sprintf("%s (%d)", kind, len(rows)))
		if len(rows) == 0 {
			if _, err := fmt.Fprintf(w, "%s\n%s\n\n", title, faintStyle.Render("none in "+lib.Dir())); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", title, styledTable([]string{"Name", "Size", "Cached"}, rows)); err != nil {
			return err
		}
	}
	return nil
}
