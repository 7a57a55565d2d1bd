// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

func newConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Establish the SSH session to the print host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.SSHConfig()
			if err != nil {
				return err
			}
			msg, err := a.sessions.Connect(cfg)
			if err != nil {
				return err
			}
			fmt.Println("OK:", msg)
			return nil
		},
	}
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the SSH session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Disconnect(); err != nil {
				return err
			}
			fmt.Println("OK: disconnected")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and job summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.sessions.Connected() {
				fmt.Println("session: connected")
			} else {
				fmt.Println("session: not connected")
			}

			var active, terminal int
			for _, job := range a.jobs.ListJobs() {
				if job.Status.Terminal() {
					terminal++
				} else {
					active++
				}
			}
			fmt.Printf("jobs: %d in progress, %d finished\n", active, terminal)
			return nil
		},
	}
}

func newPrintersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List the known printer queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := a.catalog.ListPrinters()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "QUEUE\tNAME\tLOCATION\tDUPLEX\tCOLOR\tPAPER")
			for _, p := range printers {
				sizes := make([]string, 0, len(p.SupportedPaperSizes))
				for _, s := range p.SupportedPaperSizes {
					sizes = append(sizes, string(s))
				}
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
					p.QueueName, p.Name,
					p.Location.Building, p.Location.Room,
					yesNo(p.SupportsDuplex), yesNo(p.SupportsColor),
					strings.Join(sizes, ","))
			}
			return w.Flush()
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var (
		filePath      string
		printer       string
		name          string
		copies        int
		duplex        string
		orientation   string
		paper         string
		pagesPerSheet int
		booklet       bool
		pageRange     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Create a print job and send it to the remote queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := parseSettings(copies, duplex, orientation, paper, pagesPerSheet, booklet, pageRange)
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(filePath)
			}

			cfg, err := a.cfg.SSHConfig()
			if err != nil {
				return err
			}

			job, err := a.jobs.CreateJob(name, filePath, printer, settings)
			if err != nil {
				return err
			}
			if err := a.jobs.Submit(job.ID, cfg); err != nil {
				return fmt.Errorf("job %s: %w", job.ID, err)
			}

			job, err = a.jobs.GetJob(job.ID)
			if err != nil {
				return err
			}
			fmt.Printf("OK: job %s submitted to %s", job.ID, printer)
			if job.QueueID != "" {
				fmt.Printf(" (queue id %s)", job.QueueID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to the PDF document (required)")
	cmd.Flags().StringVar(&printer, "printer", "", "Destination printer queue (required)")
	cmd.Flags().StringVar(&name, "name", "", "Job name (default: file basename)")
	cmd.Flags().IntVar(&copies, "copies", 1, "Number of copies")
	cmd.Flags().StringVar(&duplex, "duplex", "long", "Duplex mode: simplex, long, short")
	cmd.Flags().StringVar(&orientation, "orientation", "portrait", "Page orientation: portrait, landscape")
	cmd.Flags().StringVar(&paper, "paper", "A4", "Paper size: A4, A3")
	cmd.Flags().IntVar(&pagesPerSheet, "pages-per-sheet", 1, "Pages per sheet: 1, 2, 4, 6, 8, 9, 16")
	cmd.Flags().BoolVar(&booklet, "booklet", false, "Reorder pages for booklet folding")
	cmd.Flags().StringVar(&pageRange, "range", "all", "Page range: all, 3-9, or 1,3,5")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("printer")
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List all tracked print jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := a.jobs.ListJobs()
			sort.Slice(jobs, func(i, j int) bool {
				return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRINTER\tSTATUS\tQUEUE ID\tCREATED")
			for _, job := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					job.ID, job.Name, job.Printer, job.Status,
					orDash(job.QueueID),
					job.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newJobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.jobs.GetJob(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("id:        %s\n", job.ID)
			fmt.Printf("name:      %s\n", job.Name)
			fmt.Printf("file:      %s\n", job.FilePath)
			fmt.Printf("printer:   %s\n", job.Printer)
			fmt.Printf("status:    %s\n", job.Status)
			fmt.Printf("queue id:  %s\n", orDash(job.QueueID))
			fmt.Printf("copies:    %d\n", job.Settings.Copies)
			fmt.Printf("duplex:    %s\n", job.Settings.Duplex)
			fmt.Printf("paper:     %s %s\n", job.Settings.PaperSize, job.Settings.Orientation)
			if job.Settings.Booklet {
				fmt.Println("layout:    booklet")
			} else if job.Settings.PagesPerSheet > 1 {
				fmt.Printf("layout:    %d pages per sheet\n", job.Settings.PagesPerSheet)
			}
			fmt.Printf("created:   %s\n", job.CreatedAt.Local().Format(time.RFC1123))
			fmt.Printf("updated:   %s\n", job.UpdatedAt.Local().Format(time.RFC1123))
			if job.Error != "" {
				fmt.Printf("error:     %s\n", job.Error)
			}
			return nil
		},
	}
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a job, removing it from the remote queue if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.SSHConfig()
			if err != nil {
				return err
			}
			if err := a.jobs.Cancel(args[0], cfg); err != nil {
				return err
			}
			fmt.Println("OK: job", args[0], "cancelled")
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a job from history along with its backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.jobs.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("OK: job", args[0], "deleted")
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Poll the remote queues once and mark vanished jobs completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.SSHConfig()
			if err != nil {
				return err
			}
			completed, err := a.poller.Reconcile(cfg)
			if err != nil {
				return err
			}
			if len(completed) == 0 {
				fmt.Println("OK: no jobs completed")
				return nil
			}
			fmt.Printf("OK: %d job(s) completed: %s\n", len(completed), strings.Join(completed, ", "))
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the remote queues periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.SSHConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.cfg.Polling.Interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			fmt.Printf("watching queues every %s, press Ctrl-C to stop\n", interval)
			for {
				completed, err := a.poller.Reconcile(cfg)
				for _, id := range completed {
					fmt.Println("completed:", id)
				}
				if err != nil {
					a.log.Warnw("queue poll failed", "error", err)
					fmt.Fprintln(os.Stderr, "WARN:", err)
				}

				select {
				case <-ctx.Done():
					fmt.Println("OK: watch stopped")
					return a.jobs.Save()
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default: from config)")
	return cmd
}

func newCleanupCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove finished jobs older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			retention := a.cfg.Retention()
			if cmd.Flags().Changed("days") {
				if days < 0 {
					return fmt.Errorf("retention days must be non-negative")
				}
				retention = time.Duration(days) * 24 * time.Hour
			}
			removed := a.jobs.Cleanup(retention)
			fmt.Printf("OK: removed %d job(s)\n", len(removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention period in days (default: from config)")
	return cmd
}

func newStorageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "storage",
		Short: "Show the on-disk footprint of history and backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.dirs.Info()
			if err != nil {
				return err
			}
			fmt.Printf("data dir:  %s\n", info.DataDir)
			fmt.Printf("history:   %s\n", formatBytes(info.HistorySize))
			fmt.Printf("backups:   %s (%d job(s))\n", formatBytes(info.BackupsSize), info.BackupCount)
			fmt.Printf("total:     %s\n", formatBytes(info.TotalSize))
			return nil
		},
	}
}

func parseSettings(copies int, duplex, orientation, paper string, pagesPerSheet int, booklet bool, pageRange string) (domain.PrintSettings, error) {
	s := domain.DefaultSettings()

	if copies < 1 {
		return s, fmt.Errorf("copies must be at least 1")
	}
	s.Copies = copies

	switch duplex {
	case "simplex":
		s.Duplex = domain.Simplex
	case "long", "duplex":
		s.Duplex = domain.DuplexLongEdge
	case "short":
		s.Duplex = domain.DuplexShortEdge
	default:
		return s, fmt.Errorf("unknown duplex mode %q (want simplex, long or short)", duplex)
	}

	switch orientation {
	case "portrait":
		s.Orientation = domain.Portrait
	case "landscape":
		s.Orientation = domain.Landscape
	default:
		return s, fmt.Errorf("unknown orientation %q (want portrait or landscape)", orientation)
	}

	switch strings.ToUpper(paper) {
	case "A4":
		s.PaperSize = domain.PaperA4
	case "A3":
		s.PaperSize = domain.PaperA3
	default:
		return s, fmt.Errorf("unknown paper size %q (want A4 or A3)", paper)
	}

	if booklet && pagesPerSheet > 1 {
		return s, fmt.Errorf("booklet and pages-per-sheet are mutually exclusive")
	}
	s.Booklet = booklet
	if pagesPerSheet >= 1 {
		s.PagesPerSheet = pagesPerSheet
	}

	r, err := parsePageRange(pageRange)
	if err != nil {
		return s, err
	}
	s.PageRange = r
	return s, nil
}

// parsePageRange accepts "all", a span like "3-9" or a comma-separated
// selection like "1,3,5".
func parsePageRange(spec string) (domain.PageRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "all" {
		return domain.PageRange{Kind: domain.PageRangeAll}, nil
	}

	if start, end, ok := strings.Cut(spec, "-"); ok {
		from, err1 := strconv.Atoi(strings.TrimSpace(start))
		to, err2 := strconv.Atoi(strings.TrimSpace(end))
		if err1 != nil || err2 != nil || from < 1 || to < from {
			return domain.PageRange{}, fmt.Errorf("invalid page range %q", spec)
		}
		return domain.PageRange{Kind: domain.PageRangeSpan, Start: from, End: to}, nil
	}

	parts := strings.Split(spec, ",")
	pages := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return domain.PageRange{}, fmt.Errorf("invalid page selection %q", spec)
		}
		pages = append(pages, n)
	}
	return domain.PageRange{Kind: domain.PageRangeSelection, Pages: pages}, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
