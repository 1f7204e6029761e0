package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bridgit/internal/poller"
	"bridgit/internal/session"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var sourceLang string
	var targetLang string
	var mode string
	var noWait bool

	cmd := &cobra.Command{
		Use:   "translate <audio-file>",
		Short: "Submit a recording and wait for the translated clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sessionID, transcription, err := submitRecording(ctx, cmd, args[0], userID, sourceLang, targetLang, mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s accepted; transcription: %q\n", sessionID, transcription)

			parsedMode, _ := session.ParseMode(mode)
			if noWait || !parsedMode.UsesResultStore() {
				if !parsedMode.UsesResultStore() {
					fmt.Fprintf(out, "Result will be published to channel %s_audio.\n", sessionID)
				}
				return nil
			}

			fetcher := poller.NewHTTPFetcher(ctx.serverURL(), ctx.apiToken(), 10*time.Second)
			p := poller.New(fetcher, poller.Options{
				Interval:    time.Duration(cfg.Poller.IntervalSeconds) * time.Second,
				MaxAttempts: cfg.Poller.MaxAttempts,
			})

			payload, err := p.Poll(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			writePayload(out, payload, stdoutIsTTY())
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id submitting the recording")
	cmd.Flags().StringVar(&sourceLang, "from", "", "Source language code")
	cmd.Flags().StringVar(&targetLang, "to", "", "Target language code")
	cmd.Flags().StringVar(&mode, "mode", "solo", "Session mode (solo, coach, host, join)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Submit without polling for the result")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func submitRecording(ctx *commandContext, cmd *cobra.Command, audioPath, userID, sourceLang, targetLang, mode string) (string, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", "", fmt.Errorf("read audio file: %w", err)
	}
	fields := map[string]string{
		"userId":     userID,
		"sourceLang": sourceLang,
		"targetLang": targetLang,
		"mode":       mode,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", "", fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, ctx.serverURL()+"/transcribe", &body)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token := ctx.apiToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("submit recording: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("relay rejected recording (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		Success       bool   `json:"success"`
		Transcription string `json:"transcription"`
		SessionID     string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", "", fmt.Errorf("decode intake response: %w", err)
	}
	if !decoded.Success || decoded.SessionID == "" {
		return "", "", fmt.Errorf("relay returned an unexpected intake response: %s", strings.TrimSpace(string(raw)))
	}
	return decoded.SessionID, decoded.Transcription, nil
}
