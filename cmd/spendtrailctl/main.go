package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spendtrail/spendtraild/internal/ingest"
	"github.com/spendtrail/spendtraild/internal/profile"
	"github.com/spendtrail/spendtraild/internal/queue"
	"github.com/spendtrail/spendtraild/internal/syncengine"
	"github.com/spf13/cobra"
)

var (
	profileFlag string
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "spendtrailctl",
	Short:         "Control the SpendTrail ingestion daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status, badge count and queue stats",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var resp struct {
			Profile  string      `json:"profile"`
			State    string      `json:"state"`
			AutoSync bool        `json:"autoSync"`
			Badge    int         `json:"badge"`
			Queue    queue.Stats `json:"queue"`
		}
		if err := callDaemon(cmd.Context(), "GET", "/api/v1/status", nil, &resp); err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(resp)
		}
		fmt.Printf("Profile:   %s\n", resp.Profile)
		fmt.Printf("State:     %s\n", resp.State)
		fmt.Printf("Auto-sync: %v\n", resp.AutoSync)
		fmt.Printf("Badge:     %d\n", resp.Badge)
		fmt.Printf("Queued:    %d\n", resp.Queue.Total)
		if resp.Queue.Oldest != nil {
			fmt.Printf("Oldest:    %s\n", resp.Queue.Oldest.Format(time.RFC3339))
		}
		return nil
	},
}

var (
	ingestSender  string
	ingestMessage string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit a synthetic SMS through the ingestion pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw := ingest.RawMessage{
			Sender:     ingestSender,
			Body:       ingestMessage,
			ReceivedAt: time.Now().UTC(),
		}
		var result ingest.Result
		if err := callDaemon(cmd.Context(), "POST", "/api/v1/ingest", raw, &result); err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(result)
		}
		fmt.Printf("Accepted: %v\n", result.Accepted)
		fmt.Printf("Reason:   %s\n", result.Reason)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass over the pending queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var report syncengine.Report
		if err := callDaemon(cmd.Context(), "POST", "/api/v1/sync", nil, &report); err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(report)
		}
		fmt.Printf("Processed: %d\n", report.Processed)
		fmt.Printf("Failed:    %d\n", report.Failed)
		for _, f := range report.Failures {
			fmt.Printf("  %s: %s\n", f.Item.ID, f.Reason)
		}
		return nil
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect or clear the pending queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending queue items",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var resp struct {
			Count int          `json:"count"`
			Items []queue.Item `json:"items"`
		}
		if err := callDaemon(cmd.Context(), "GET", "/api/v1/queue", nil, &resp); err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(resp)
		}
		if resp.Count == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}
		for _, item := range resp.Items {
			fmt.Printf("%s  %s  %s  %q\n",
				item.ID,
				item.QueuedAt.Format(time.RFC3339),
				item.Payload.Sender,
				preview(item.Payload.Message, 60),
			)
		}
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every pending queue item",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := callDaemon(cmd.Context(), "DELETE", "/api/v1/queue", nil, nil); err != nil {
			return err
		}
		if !jsonFlag {
			fmt.Println("Queue cleared.")
		}
		return nil
	},
}

var autosyncCmd = &cobra.Command{
	Use:       "autosync <on|off>",
	Short:     "Toggle SMS auto-sync",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]bool{"enabled": args[0] == "on"}
		var resp struct {
			Enabled bool `json:"enabled"`
		}
		if err := callDaemon(cmd.Context(), "PUT", "/api/v1/autosync", body, &resp); err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(resp)
		}
		fmt.Printf("Auto-sync enabled: %v\n", resp.Enabled)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")

	ingestCmd.Flags().StringVarP(&ingestSender, "sender", "s", "", "SMS sender identifier")
	ingestCmd.Flags().StringVarP(&ingestMessage, "message", "m", "", "SMS body")
	_ = ingestCmd.MarkFlagRequired("sender")
	_ = ingestCmd.MarkFlagRequired("message")

	queueCmd.AddCommand(queueListCmd, queueClearCmd)
	rootCmd.AddCommand(statusCmd, ingestCmd, syncCmd, queueCmd, autosyncCmd)
}

func callDaemon(ctx context.Context, method, path string, body, out any) error {
	profileName := profile.Resolve(profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		return err
	}
	c := newClient(profile.SocketPath(profileName))
	return c.call(ctx, method, path, body, out)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preview truncates on rune boundaries; message bodies carry multi-byte
// currency symbols.
func preview(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
