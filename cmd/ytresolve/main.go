// Command ytresolve prints directly fetchable media URLs for YouTube and
// TikTok links.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ytget/ytresolve/internal/mimeext"
	"github.com/ytget/ytresolve/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Print a probed media URL for a video link",
		Args:  cobra.ExactArgs(1),
		RunE:  resolveRun,
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats <url>",
		Short: "List the adaptive formats of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE:  formatsRun,
	}
}

// resolveResult is the --json shape of resolve.
type resolveResult struct {
	URL         string `json:"url"`
	Service     string `json:"service"`
	VideoID     string `json:"video_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Itag        int    `json:"itag,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Ext         string `json:"ext,omitempty"`
	Attempts    int    `json:"attempts,omitempty"`
	PlayerJSURL string `json:"player_js_url,omitempty"`
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	if d := cfg.Resolve.Timeout.Duration; d > 0 {
		tctx, cancel := context.WithTimeout(ctx, d)
		return tctx, func() { cancel(); stop() }
	}
	return ctx, stop
}

func resolveRun(cmd *cobra.Command, args []string) error {
	link := strings.TrimSpace(args[0])
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := svc.registry.For(link)
	if err != nil {
		return err
	}
	var res resolveResult
	if s == svc.youtube {
		u, info, err := svc.youtube.ResolveURL(ctx, link)
		if err != nil {
			return err
		}
		res = youtubeResult(s.ServiceBaseURL(), u, info)
	} else {
		u, err := s.DecodeURL(ctx, link)
		if err != nil {
			return err
		}
		res = resolveResult{URL: u, Service: s.ServiceBaseURL()}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, res)
	}
	_, err = fmt.Fprintln(out, res.URL)
	return err
}

func youtubeResult(service, mediaURL string, info *types.VideoInfo) resolveResult {
	res := resolveResult{
		URL:         mediaURL,
		Service:     service,
		VideoID:     info.ID,
		Title:       info.Title,
		Attempts:    info.Attempts,
		PlayerJSURL: info.PlayerJSURL,
	}
	if info.Selected != nil {
		res.Itag = info.Selected.Itag
		res.MimeType = info.Selected.MimeType
		res.Ext = mimeext.ExtFromMime(info.Selected.MimeType)
	}
	return res
}

func formatsRun(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	info, err := svc.youtube.Formats(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, info)
	}
	return printFormats(out, info)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFormats renders the catalog as a table; the selected row is marked.
func printFormats(w io.Writer, info *types.VideoInfo) error {
	bold := color.New(color.Bold)
	pick := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)

	if info.Title != "" {
		bold.Fprintf(w, "%s", info.Title)
		dim.Fprintf(w, " (%s)\n", info.ID)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tITAG\tMIME\tEXT\tQUALITY\tSIZE\tBITRATE\tSOURCE")
	for i := range info.Formats {
		f := &info.Formats[i]
		mark := ""
		if info.Selected != nil && f.Itag == info.Selected.Itag {
			mark = pick.Sprint("*")
		}
		mime, _, _ := strings.Cut(f.MimeType, ";")
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, f.Itag, mime, mimeext.ExtFromMime(f.MimeType), quality(f), size(f), bitrate(f.Bitrate), source(f))
	}
	return tw.Flush()
}

func quality(f *types.Format) string {
	switch {
	case f.QualityLabel != "":
		return f.QualityLabel
	case f.Height > 0:
		return fmt.Sprintf("%dx%d", f.Width, f.Height)
	case f.IsVideo():
		return "?"
	}
	return "audio"
}

func size(f *types.Format) string {
	n, err := strconv.ParseInt(f.ContentLength, 10, 64)
	if err != nil || n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func bitrate(bps int) string {
	if bps <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dk", bps/1000)
}

func source(f *types.Format) string {
	switch {
	case f.URL != "":
		return "direct"
	case f.Token() != "":
		return "cipher"
	}
	return "none"
}
