package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show relay daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			target := ctx.serverURL() + "/healthz"

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
			if err != nil {
				return fmt.Errorf("build status request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("relay unreachable at %s: %w", target, err)
			}
			defer resp.Body.Close()

			var decoded map[string]string
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if err := json.Unmarshal(body, &decoded); err != nil {
				return fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}

			rows := [][]string{
				{"Address", ctx.serverURL()},
				{"Status", decoded["status"]},
			}
			if detail := decoded["error"]; detail != "" {
				rows = append(rows, []string{"Detail", detail})
			}

			out := cmd.OutOrStdout()
			if stdoutIsTTY() {
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			} else {
				for _, row := range rows {
					fmt.Fprintf(out, "%s=%s\n", row[0], row[1])
				}
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("relay degraded (status %d)", resp.StatusCode)
			}
			return nil
		},
	}
}
