package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	serverURL    string
	serverConfig string
	noAutoStart  bool
	timeout      time.Duration
	rootCmd     = &cobra.Command{
		Use:   "vidgrab",
		Short: "vidgrab CLI - fetch videos and audio from social media links",
		Long: `A command-line client for the vidgrab server. Supports YouTube, TikTok,
Instagram, Twitter/X, Facebook and Vimeo links.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:10000", "Server URL")
	rootCmd.PersistentFlags().StringVar(&serverConfig, "server-config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "Request timeout")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func client() *apiClient {
	return newAPIClient(serverURL, timeout)
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show title and platform for a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result struct {
			Info struct {
				Title     string  `json:"title"`
				Platform  string  `json:"platform"`
				Duration  float64 `json:"duration"`
				Uploader  string  `json:"uploader"`
				Thumbnail string  `json:"thumbnail"`
			} `json:"info"`
		}
		if err := client().postJSON("/api/info", map[string]string{"url": args[0]}, &result); err != nil {
			return err
		}

		fmt.Printf("Title:     %s\n", result.Info.Title)
		fmt.Printf("Platform:  %s\n", result.Info.Platform)
		if result.Info.Uploader != "" {
			fmt.Printf("Uploader:  %s\n", result.Info.Uploader)
		}
		if result.Info.Duration > 0 {
			fmt.Printf("Duration:  %s\n", time.Duration(result.Info.Duration*float64(time.Second)).Round(time.Second))
		}
		if result.Info.Thumbnail != "" {
			fmt.Printf("Thumbnail: %s\n", result.Info.Thumbnail)
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video or its audio track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		format, _ := cmd.Flags().GetString("format")
		quality, _ := cmd.Flags().GetString("quality")
		outDir, _ := cmd.Flags().GetString("output")

		payload := map[string]string{
			"url":     args[0],
			"format":  format,
			"quality": quality,
		}

		fmt.Println("Downloading...")
		path, size, err := client().download(payload, outDir)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", path, humanize.IBytes(uint64(size)))
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired files from the server's staging directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var result struct {
			Cleaned int `json:"cleaned"`
		}
		if err := client().postJSON("/api/clean", struct{}{}, &result); err != nil {
			return err
		}
		fmt.Printf("Cleaned %d file(s)\n", result.Cleaned)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]interface{}
		if err := client().getJSON("/health", &result); err != nil {
			return err
		}
		fmt.Printf("Status:  %v\n", result["status"])
		fmt.Printf("Backend: %v\n", result["backend"])
		fmt.Printf("Time:    %v\n", result["timestamp"])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show acquisition statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var stats struct {
			Total       int64 `json:"total"`
			Processing  int64 `json:"processing"`
			Served      int64 `json:"served"`
			Rejected    int64 `json:"rejected"`
			Failed      int64 `json:"failed"`
			ServedBytes int64 `json:"served_bytes"`
		}
		if err := client().getJSON("/api/stats", &stats); err != nil {
			return err
		}

		fmt.Println("Acquisition Statistics:")
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Processing: %d\n", stats.Processing)
		fmt.Printf("  Served:     %d (%s)\n", stats.Served, humanize.IBytes(uint64(stats.ServedBytes)))
		fmt.Printf("  Rejected:   %d\n", stats.Rejected)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent acquisitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		var result struct {
			Acquisitions []struct {
				ID        string    `json:"id"`
				URL       string    `json:"url"`
				Platform  string    `json:"platform"`
				Status    string    `json:"status"`
				ErrorKind string    `json:"error_kind"`
				SizeBytes int64     `json:"size_bytes"`
				CreatedAt time.Time `json:"created_at"`
			} `json:"acquisitions"`
		}
		if err := client().getJSON(fmt.Sprintf("/api/history?limit=%d", limit), &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tPLATFORM\tSTATUS\tSIZE\tCREATED")
		for _, a := range result.Acquisitions {
			status := a.Status
			if a.ErrorKind != "" {
				status += " (" + a.ErrorKind + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(a.ID, 8),
				truncate(a.URL, 40),
				a.Platform,
				status,
				humanize.IBytes(uint64(a.SizeBytes)),
				humanize.Time(a.CreatedAt))
		}
		return w.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's server logs (acquisition, reaper, error)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		category := "acquisition"
		if len(args) == 1 {
			category = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		query, _ := cmd.Flags().GetString("search")

		path := fmt.Sprintf("/api/logs/%s?limit=%d", category, limit)
		if query != "" {
			path = fmt.Sprintf("/api/logs/%s/search?limit=%d&q=%s", category, limit, query)
		}

		var result struct {
			Entries []struct {
				Timestamp string                 `json:"timestamp"`
				Level     string                 `json:"level"`
				Message   string                 `json:"message"`
				Fields    map[string]interface{} `json:"fields"`
			} `json:"entries"`
		}
		if err := client().getJSON(path, &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			var fields []string
			for k, v := range e.Fields {
				fields = append(fields, fmt.Sprintf("%s=%v", k, v))
			}
			fmt.Printf("%s %-5s %s %s\n", e.Timestamp, strings.ToUpper(e.Level), e.Message, strings.Join(fields, " "))
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "video", "Format (video, audio)")
	downloadCmd.Flags().StringP("quality", "q", "best", "Quality (best, 1080, 720, 480, 360)")
	downloadCmd.Flags().StringP("output", "o", ".", "Directory to save into")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of records")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries")
	logsCmd.Flags().StringP("search", "s", "", "Only show entries containing this text")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
