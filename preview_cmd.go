package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/bot"
)

var (
	previewStyle string
	previewWidth uint
	previewPager bool

	previewCmd = &cobra.Command{
		Use:       "preview [en|fr]",
		Short:     "Render the bot help message in the terminal",
		Long:      paragraph(fmt.Sprintf("\n%s the /help (en) or /aide (fr) message the way a chat would show it.", keyword("Render"))),
		Example:   paragraph("aoe2-telegram-bot preview\naoe2-telegram-bot preview fr --style dark"),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"en", "fr"},
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := "en"
			if len(args) > 0 {
				lang = args[0]
			}
			text, err := helpText(lang)
			if err != nil {
				return err
			}

			isTerminal := stdoutIsTerminal()
			style := previewStyle
			if !isTerminal && !cmd.Flags().Changed("style") {
				style = styles.NoTTYStyle
			}
			width := previewWidth
			if !cmd.Flags().Changed("width") {
				width = terminalWidth(isTerminal)
			}

			out, err := renderHelp(text, style, width)
			if err != nil {
				return err
			}
			if previewPager {
				return page(out)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
)

func init() {
	previewCmd.Flags().StringVarP(&previewStyle, "style", "s", styles.AutoStyle, "glamour style name")
	previewCmd.Flags().UintVarP(&previewWidth, "width", "w", 0, "word-wrap at width")
	previewCmd.Flags().BoolVarP(&previewPager, "pager", "p", false, "display with pager")
}

func helpText(lang string) (string, error) {
	switch strings.ToLower(lang) {
	case "en", "help":
		return bot.HelpEnglish, nil
	case "fr", "aide":
		return bot.HelpFrench, nil
	default:
		return "", fmt.Errorf("unknown language %q: use en or fr", lang)
	}
}

func terminalWidth(isTerminal bool) uint {
	var width uint
	if isTerminal {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = uint(w) //nolint:gosec
		}
		if width > 120 {
			width = 120
		}
	}
	if width == 0 {
		width = 80
	}
	return width
}

// renderHelp renders a Telegram Markdown help text with glamour.
func renderHelp(text, style string, width uint) (string, error) {
	var styleOpt glamour.TermRendererOption
	switch {
	case style == styles.AutoStyle:
		styleOpt = glamour.WithAutoStyle()
	case styles.DefaultStyles[style] != nil:
		styleOpt = glamour.WithStandardStyle(style)
	default:
		return "", fmt.Errorf("invalid style: %s", style)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		styleOpt,
		glamour.WithWordWrap(int(width)), //nolint:gosec
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func page(content string) error {
	pagerCmd := os.Getenv("PAGER")
	if pagerCmd == "" {
		pagerCmd = "less -r"
	}

	pa := strings.Split(pagerCmd, " ")
	c := exec.Command(pa[0], pa[1:]...) //nolint:gosec
	c.Stdin = strings.NewReader(content)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("unable to run command: %w", err)
	}
	return nil
}
