package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"transub/internal/types"
)

// renderSummary formats the run result for humans. A rounded table on a
// terminal, plain ASCII when output is redirected.
func renderSummary(res types.Result) string {
	tw := table.NewWriter()
	if stdoutIsTerminal() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle("Translation Result")

	tw.AppendRow(table.Row{"Input", res.InputFile})
	tw.AppendRow(table.Row{"Mode", string(res.OutputMode)})
	tw.AppendRow(table.Row{"Elapsed", fmt.Sprintf("%.2fs", res.ProcessingTime)})
	tw.AppendRow(table.Row{"Status", statusText(res)})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Audio extracted", yesNo(res.AudioExtracted)})
	if res.AudioDuration > 0 {
		tw.AppendRow(table.Row{"Audio duration", fmt.Sprintf("%.2fs", res.AudioDuration)})
	}
	tw.AppendRow(table.Row{"Speech recognized", yesNo(res.WhisperHandled)})
	tw.AppendRow(table.Row{"Subtitles written", yesNo(res.SubtitleExtracted)})
	tw.AppendRow(table.Row{"Languages", res.SubtitleLanguage.Source + " -> " + res.SubtitleLanguage.Target})

	switch {
	case res.TranslatedSubtitlePath != "":
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"Subtitle file", res.TranslatedSubtitlePath})
	case res.OutputVideoPath != "":
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"Output video", res.OutputVideoPath})
		tw.AppendRow(table.Row{"Resolution", res.VideoResolution})
	}

	if !res.Success {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"Error code", res.ErrorCode})
		tw.AppendRow(table.Row{"Error detail", res.ErrorDetails})
	}

	return tw.Render()
}

func statusText(res types.Result) string {
	if res.Success {
		return "ok: " + res.Message
	}
	return "failed: " + res.Message
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
