// Copyright 2025 Crestdesk Systems
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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	crestdesk "github.com/crestdesk/crestdesk"
	"github.com/crestdesk/crestdesk/assist"
	"github.com/crestdesk/crestdesk/config"
	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

func main() {
	app := &cli.App{
		Name:  "crestdesk",
		Usage: "Knowledge ingestion and ticket assist pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "tenant",
				Aliases: []string{"t"},
				Usage:   "Tenant ID scoping the operation",
				Value:   "default",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload a file as a knowledge source and index it",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mime",
						Usage: "MIME type of the file (detected from extension when empty)",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the indexing job",
						Value: "cli",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Block until the indexing job reaches a terminal state",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List knowledge sources",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by lifecycle state (QUEUED, INDEXING, READY, FAILED)",
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Filter by filename substring",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of sources to list",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show source counts per lifecycle state",
				Action: statusCommand,
			},
			{
				Name:      "retry",
				Usage:     "Re-run indexing for a source",
				ArgsUsage: "<source-id>",
				Action:    retryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the indexing job",
						Value: "cli",
					},
				},
			},
			{
				Name:      "repair",
				Usage:     "Replace a source's missing file and re-index",
				ArgsUsage: "<source-id> <file>",
				Action:    repairCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mime",
						Usage: "MIME type of the replacement file",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the indexing job",
						Value: "cli",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a source with its chunks, jobs, and files",
				ArgsUsage: "<source-id>",
				Action:    deleteCommand,
			},
			{
				Name:      "job",
				Usage:     "Show a source's latest indexing job",
				ArgsUsage: "<source-id>",
				Action:    jobCommand,
			},
			{
				Name:      "query",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of hits to return (1-20)",
						Value: 5,
					},
				},
			},
			{
				Name:      "assist",
				Usage:     "Draft an AI reply for a ticket",
				ArgsUsage: "<ticket-id>",
				Action:    assistCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of knowledge hits to retrieve (1-20)",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "tone",
						Usage: "Tone of the drafted reply",
						Value: "professional",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Preview the draft without posting a comment",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the usage event",
						Value: "cli",
					},
				},
			},
			{
				Name:   "requeue",
				Usage:  "Resubmit jobs stuck in QUEUED and wait for them",
				Action: requeueCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for resubmitted jobs",
						Value: 5 * time.Minute,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openSystem assembles the pipeline from the CLI flags.
func openSystem(c *cli.Context) (*crestdesk.System, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return crestdesk.NewSystem(cfg)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx := context.Background()
	filename := filepath.Base(path)
	source, job, err := system.KB.CreateFromUpload(ctx, c.String("tenant"),
		c.String("user"), filename, detectMime(filename, c.String("mime")), data)
	if err != nil {
		return err
	}
	fmt.Printf("source %s queued (job %s)\n", source.ID, job.ID)

	if c.Bool("wait") {
		return waitForJob(ctx, system, job.ID)
	}
	return nil
}

func listCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	sources, err := system.KB.List(context.Background(), c.String("tenant"), storage.SourceFilter{
		Status: core.SourceStatus(strings.ToUpper(c.String("status"))),
		Query:  c.String("query"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		return err
	}

	for _, source := range sources {
		fmt.Printf("%s  %-8s  %-40s  %s\n",
			source.ID, source.Status, source.Filename,
			source.CreatedAt.Format(time.RFC3339))
		if source.Error != "" {
			fmt.Printf("    error: %s\n", source.Error)
		}
	}
	fmt.Printf("%d source(s)\n", len(sources))
	return nil
}

func statusCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	counts, err := system.KB.StatusCounts(context.Background(), c.String("tenant"))
	if err != nil {
		return err
	}
	for _, status := range core.SourceStatuses {
		fmt.Printf("%-8s  %d\n", status, counts[status])
	}
	return nil
}

func retryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source-id argument")
	}
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx := context.Background()
	job, err := system.KB.Retry(ctx, c.String("tenant"), c.Args().First(), c.String("user"))
	if err != nil {
		return err
	}
	fmt.Printf("job %s queued\n", job.ID)
	return waitForJob(ctx, system, job.ID)
}

func repairCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected source-id and file arguments")
	}
	path := c.Args().Get(1)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx := context.Background()
	filename := filepath.Base(path)
	job, err := system.KB.Repair(ctx, c.String("tenant"), c.Args().First(),
		c.String("user"), filename, detectMime(filename, c.String("mime")), data)
	if err != nil {
		return err
	}
	fmt.Printf("repair job %s queued\n", job.ID)
	return waitForJob(ctx, system, job.ID)
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source-id argument")
	}
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	if err := system.KB.Delete(context.Background(), c.String("tenant"), c.Args().First()); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func jobCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source-id argument")
	}
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	source, job, err := system.KB.GetWithLatestJob(context.Background(),
		c.String("tenant"), c.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("source %s: %s\n", source.ID, source.Status)
	if job == nil {
		fmt.Println("no indexing job recorded")
		return nil
	}
	fmt.Printf("job %s: %s (%d%%)\n", job.ID, job.Status, job.Progress)
	if job.LastError != "" {
		fmt.Printf("error: %s\n", job.LastError)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected query text")
	}
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	hits, err := system.KB.Query(context.Background(), c.String("tenant"),
		strings.Join(c.Args().Slice(), " "), c.Int("top-k"))
	if err != nil {
		return err
	}
	for i, hit := range hits {
		fmt.Printf("[%d] %.3f  %s (chunk %d)\n    %s\n",
			i+1, hit.Similarity, hit.Filename, hit.Ordinal, hit.Snippet)
	}
	fmt.Printf("%d hit(s)\n", len(hits))
	return nil
}

func assistCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one ticket-id argument")
	}
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	result, err := system.Assist.Suggest(context.Background(), assist.Request{
		TenantID: c.String("tenant"),
		TicketID: c.Args().First(),
		UserID:   c.String("user"),
		TopK:     c.Int("top-k"),
		Tone:     c.String("tone"),
		DryRun:   c.Bool("dry-run"),
	})
	if err != nil {
		return err
	}

	if result.ParseFailed {
		fmt.Println("model output did not parse; raw output:")
		fmt.Println(result.Raw)
		return nil
	}
	out, err := json.MarshalIndent(result.Reply, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if result.Cached {
		fmt.Printf("(served from %s cache)\n", result.CacheType)
	}
	if result.CommentID != "" {
		fmt.Printf("posted as comment %s\n", result.CommentID)
	}
	return nil
}

func requeueCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx := context.Background()
	count, err := system.Dispatcher.ResubmitQueued(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("resubmitted %d job(s)\n", count)
	if count == 0 {
		return nil
	}

	deadline := time.Now().Add(c.Duration("wait"))
	for time.Now().Before(deadline) {
		if system.Dispatcher.InFlight() == 0 {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("jobs still running after %s", c.Duration("wait"))
}

// waitForJob polls the job until it reaches a terminal state.
func waitForJob(ctx context.Context, system *crestdesk.System, jobID string) error {
	for {
		job, err := system.Store().Jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Terminal() {
			if job.Status == core.JobFailed {
				return fmt.Errorf("indexing failed: %s", job.LastError)
			}
			fmt.Println("indexing succeeded")
			return nil
		}
		fmt.Printf("  %s %d%%\n", job.Status, job.Progress)
		time.Sleep(1 * time.Second)
	}
}

// detectMime falls back to extension-based detection when no explicit
// MIME type was given.
func detectMime(filename, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	default:
		return "text/plain"
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
