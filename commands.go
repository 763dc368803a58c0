package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/voice"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats of the list command.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	listFormat string
	addVoice   string

	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List submitted articles",
		Example: paragraph("articlereader list\narticlereader list --format json"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := newGateway()
			if err != nil {
				return err
			}
			articles, err := gw.ListArticles(cmd.Context())
			if err != nil {
				return errors.New(api.Message(err))
			}
			return writeArticles(cmd.OutOrStdout(), articles, listFormat, outputWidth())
		},
	}

	addCmd = &cobra.Command{
		Use:     "add URL",
		Short:   "Submit an article to be read aloud",
		Example: paragraph("articlereader add https://example.com/post --voice en-US-Standard-C"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := resolveVoice(addVoice)
			if err != nil {
				return err
			}
			gw, err := newGateway()
			if err != nil {
				return err
			}
			return addArticle(cmd.Context(), cmd.OutOrStdout(), gw, args[0], v)
		},
	}

	deleteCmd = &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an article",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := newGateway()
			if err != nil {
				return err
			}
			ack, err := gw.DeleteArticle(cmd.Context(), args[0])
			if err != nil {
				return errors.New(api.Message(err))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ackMessage(ack, args[0]))
			return err
		},
	}

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the available voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeVoices(cmd.OutOrStdout(), viper.GetString("voice.default"))
		},
	}

	previewCmd = &cobra.Command{
		Use:     "preview [VOICE]",
		Short:   "Play a short sample of a voice",
		Example: paragraph("articlereader preview\narticlereader preview en-US-Standard-J"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) > 0 {
				id = args[0]
			}
			v, err := resolveVoice(id)
			if err != nil {
				return err
			}
			return playSample(cmd.Context(), cmd.OutOrStdout(), v)
		},
	}
)

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", formatText, "output format: text, json or yaml")
	addCmd.Flags().StringVar(&addVoice, "voice", "", "voice to synthesize with (default voice.default)")
}

// resolveVoice falls back to the configured default and rejects ids that
// are not in the catalog.
func resolveVoice(id string) (voice.Voice, error) {
	if id == "" {
		id = viper.GetString("voice.default")
	}
	v, ok := voice.Lookup(id)
	if !ok {
		return voice.Voice{}, fmt.Errorf("unknown voice %q: see 'articlereader voices'", id)
	}
	return v, nil
}

func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func writeArticles(w io.Writer, articles []api.Article, format string, width int) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(articles); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		return writeArticleTable(w, articles, width)
	default:
		return fmt.Errorf("unknown format %q: use %s, %s or %s", format, formatText, formatJSON, formatYAML)
	}
}

func writeArticleTable(w io.Writer, articles []api.Article, width int) error {
	if len(articles) == 0 {
		_, err := fmt.Fprintln(w, "No articles yet.")
		return err
	}

	idWidth := len("ID")
	for _, a := range articles {
		idWidth = max(idWidth, runewidth.StringWidth(a.ID))
	}
	const (
		audioWidth = 5
		sizeWidth  = 8
		gaps       = 3 * 2
	)
	titleWidth := max(width-idWidth-audioWidth-sizeWidth-gaps, 10)

	row := func(id, title, audio, size string) string {
		return strings.TrimRight(strings.Join([]string{
			runewidth.FillRight(id, idWidth),
			runewidth.FillRight(runewidth.Truncate(title, titleWidth, "…"), titleWidth),
			runewidth.FillRight(audio, audioWidth),
			runewidth.FillLeft(size, sizeWidth),
		}, "  "), " ")
	}

	var b strings.Builder
	b.WriteString(row("ID", "TITLE", "AUDIO", "SIZE") + "\n")
	for _, a := range articles {
		audio := "-"
		if a.HasAudio() {
			audio = "yes"
		}
		title := a.Title
		if title == "" {
			title = a.ContentURL
		}
		b.WriteString(row(a.ID, title, audio, humanize.Bytes(uint64(len(a.Content)))) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func addArticle(ctx context.Context, w io.Writer, gw *api.Client, articleURL string, v voice.Voice) error {
	articleURL = strings.TrimSpace(articleURL)
	if articleURL == "" {
		return errors.New("article URL must not be empty")
	}
	a, err := gw.SubmitArticle(ctx, articleURL, v.ID)
	if err != nil {
		return errors.New(api.Message(err))
	}
	log.Info("article submitted", "id", a.ID, "voice", v.ID)

	title := a.Title
	if title == "" {
		title = articleURL
	}
	_, err = fmt.Fprintf(w, "Added %s (%s) read by %s\n", keyword(title), a.ID, v.Name())
	return err
}

// ackMessage prefers the message the backend returned.
func ackMessage(ack api.Ack, id string) string {
	if msg, ok := ack["message"].(string); ok && msg != "" {
		return msg
	}
	return "Deleted article " + id
}

func writeVoices(w io.Writer, current string) error {
	var b strings.Builder
	for _, v := range voice.All() {
		mark := " "
		if v.ID == current {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-18s %s\n", mark, v.ID, v.Name())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func playSample(ctx context.Context, w io.Writer, v voice.Voice) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.newPreviewer()
	defer func() { _ = p.Close() }()

	fmt.Fprintf(w, "Playing %s...\n", keyword(v.Name()))
	if err := p.TestVoice(ctx, v.ID); err != nil {
		return errors.New(api.Message(err))
	}
	if err := p.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
