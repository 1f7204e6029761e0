package main

import (
	"fmt"
	"io"
	"strconv"

	"bridgit/internal/session"
)

// payloadRows flattens a session result for display, skipping empty fields.
func payloadRows(p session.Payload) [][]string {
	rows := [][]string{
		{"Session", p.SessionID},
		{"Mode", string(p.Mode)},
		{"Languages", p.SourceLang + " -> " + p.TargetLang},
	}
	if p.Text != "" {
		rows = append(rows, []string{"Original", p.Text})
	}
	if p.TranslatedText != "" {
		rows = append(rows, []string{"Translation", p.TranslatedText})
	}
	if p.AudioURL != "" {
		rows = append(rows, []string{"Audio", p.AudioURL})
	}
	if p.Duration > 0 {
		rows = append(rows, []string{"Duration", strconv.FormatFloat(p.Duration, 'f', 2, 64) + "s"})
	}
	if p.VoiceID != "" {
		rows = append(rows, []string{"Voice", p.VoiceID})
	}
	rows = append(rows, []string{"Complete", strconv.FormatBool(p.ProcessingComplete)})
	if p.Timestamp != "" {
		rows = append(rows, []string{"Timestamp", p.Timestamp})
	}
	return rows
}

// writePayload renders a result as a table on terminals and as plain
// key=value lines otherwise.
func writePayload(w io.Writer, p session.Payload, pretty bool) {
	rows := payloadRows(p)
	if pretty {
		fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s=%s\n", row[0], row[1])
	}
}
