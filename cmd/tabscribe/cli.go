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
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tabscribe/tabscribe/internal/api"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/ops"
)

// maxStdinBytes caps snippets piped into capture and update.
const maxStdinBytes = 1 << 20

// opener wires the services for a run. It is called at most once per app,
// the first time a command needs them.
type opener func(debug bool) (*services, error)

type lazyServices struct {
	open opener
	once sync.Once
	svc  *services
	err  error
}

func (l *lazyServices) get(c *cli.Context) (*services, error) {
	l.once.Do(func() {
		l.svc, l.err = l.open(c.Bool("debug"))
	})
	return l.svc, l.err
}

func (l *lazyServices) close() {
	if l.svc != nil {
		_ = l.svc.Close()
	}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(open opener) *cli.App {
	lazy := &lazyServices{open: open}

	// run adapts a command body that needs services.
	run := func(fn func(c *cli.Context, s *services) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			s, err := lazy.get(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return fn(c, s)
		}
	}

	app := &cli.App{
		Name:    "tabscribe",
		Usage:   "Clip snippets into cards and explore the literature around them",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Verbose logging to stderr", EnvVars: []string{"TABSCRIBE_DEBUG"}},
		},
		Commands: []*cli.Command{
			captureCmd(run),
			listCmd(run),
			getCmd(run),
			updateCmd(run),
			tagCmd(run),
			actionCmd(run),
			trashCmd(run),
			restoreCmd(run),
			purgeCmd(run),
			projectCmd(run),
			lensCmd(run),
			similarCmd(run),
			exportCmd(run),
			sweepCmd(run),
			modeCmd(run),
			serveCmd(run),
		},
		After: func(*cli.Context) error {
			lazy.close()
			return nil
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

type runFunc func(fn func(c *cli.Context, s *services) error) cli.ActionFunc

func captureCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture a snippet as a new card (reads the snippet from stdin unless --snippet is set)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "snippet", Aliases: []string{"s"}, Usage: "Snippet text"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Page title"},
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Page URL"},
			&cli.StringFlag{Name: "favicon", Usage: "Favicon URL"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "doi", Usage: "DOI (extracted from the snippet, URL or title when omitted)"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id (default: current project)"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			snippet := c.String("snippet")
			if snippet == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("snippet must be passed with --snippet or piped via stdin"))
				}
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				snippet = text
			}

			output, err := ops.Capture(c.Context, s.st, s.set, ops.CaptureInput{
				Title:     c.String("title"),
				URL:       c.String("url"),
				Favicon:   c.String("favicon"),
				Snippet:   snippet,
				Tags:      parseTags(c.String("tags")),
				DOI:       c.String("doi"),
				ProjectID: c.String("project"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func listCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id (default: current project)"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "List every project"},
			&cli.StringFlag{Name: "tag", Usage: "Only cards with this tag"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match title, snippet or URL"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Usage: "Pagination offset"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include cards in the trash"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.List(c.Context, s.st, s.set, ops.ListInput{
				ProjectID:      c.String("project"),
				AllProjects:    c.Bool("all"),
				Tag:            c.String("tag"),
				Query:          c.String("query"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func getCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Also find cards in the trash"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Get(c.Context, s.st, ops.GetInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func updateCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit a card (optionally reads a new snippet from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "New URL"},
			&cli.StringFlag{Name: "snippet", Aliases: []string{"s"}, Usage: "New snippet"},
			&cli.StringFlag{Name: "tags", Usage: "Replacement comma-separated tags"},
			&cli.StringFlag{Name: "doi", Usage: "New DOI"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Move to this project"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			if c.IsSet("snippet") {
				snippet := c.String("snippet")
				input.Snippet = &snippet
			} else if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				if text != "" {
					input.Snippet = &text
				}
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("url") {
				url := c.String("url")
				input.URL = &url
			}
			if c.IsSet("tags") {
				tags := parseTags(c.String("tags"))
				input.Tags = &tags
			}
			if c.IsSet("doi") {
				doi := c.String("doi")
				input.DOI = &doi
			}
			if c.IsSet("project") {
				project := c.String("project")
				input.ProjectID = &project
			}

			output, err := ops.Update(c.Context, s.st, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func tagCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add or remove tags",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "add", Usage: "Comma-separated tags to add"},
			&cli.StringFlag{Name: "remove", Usage: "Comma-separated tags to remove"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Tag(c.Context, s.st, ops.TagInput{
				ID:     c.Args().First(),
				Add:    parseTags(c.String("add")),
				Remove: parseTags(c.String("remove")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func actionCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "action",
		Usage:     "Rewrite a card with a local model: summarize, rewrite, proofread or translate",
		ArgsUsage: "<action> <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "style", Usage: "Rewrite style (default Concise)"},
			&cli.StringFlag{Name: "target", Usage: "Translation target language (default fr)"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: tabscribe action <action> <id>"))
			}
			output, err := ops.ApplyAction(c.Context, s.st, s.transformer(), ops.ActionInput{
				Action: c.Args().Get(0),
				ID:     c.Args().Get(1),
				Style:  c.String("style"),
				Target: c.String("target"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func trashCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "trash",
		Usage:     "Move a card to the trash, or list the trash when no id is given",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Listing: only this project's trash"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Listing: max results"},
			&cli.IntFlag{Name: "offset", Usage: "Listing: pagination offset"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			if c.NArg() == 0 {
				output, err := ops.ListTrash(c.Context, s.st, ops.ListTrashInput{
					ProjectID: c.String("project"),
					Limit:     c.Int("limit"),
					Offset:    c.Int("offset"),
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.Trash(c.Context, s.st, ops.TrashInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func restoreCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore a card from the trash",
		ArgsUsage: "<id>",
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Restore(c.Context, s.st, ops.TrashInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func purgeCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "Permanently delete one card, or empty the trash",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Only empty this project's trash"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if trashed more than N days ago (e.g., 7d)"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			input := ops.PurgeInput{ID: c.Args().First()}

			if project := c.String("project"); project != "" {
				input.ProjectID = &project
			}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, s.st, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func projectCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List projects with card counts",
				Action: run(func(c *cli.Context, s *services) error {
					output, err := ops.ListProjects(c.Context, s.st, s.set)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				}),
			},
			{
				Name:      "create",
				Usage:     "Create a project",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "use", Usage: "Make it the current project"},
				},
				Action: run(func(c *cli.Context, s *services) error {
					output, err := ops.CreateProject(c.Context, s.st, s.set, ops.CreateProjectInput{
						Name: strings.Join(c.Args().Slice(), " "),
						Use:  c.Bool("use"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a project",
				ArgsUsage: "<id> <name>",
				Action: run(func(c *cli.Context, s *services) error {
					if c.NArg() < 2 {
						return outputError(errors.NewInvalidRequest("usage: tabscribe project rename <id> <name>"))
					}
					output, err := ops.RenameProject(c.Context, s.st, ops.RenameProjectInput{
						ID:   c.Args().First(),
						Name: strings.Join(c.Args().Tail(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a project and all of its cards",
				ArgsUsage: "<id>",
				Action: run(func(c *cli.Context, s *services) error {
					output, err := ops.DeleteProject(c.Context, s.st, s.set, ops.ProjectInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				}),
			},
			{
				Name:      "use",
				Usage:     "Switch the current project by id or name",
				ArgsUsage: "<id|name>",
				Action: run(func(c *cli.Context, s *services) error {
					output, err := ops.UseProject(c.Context, s.st, s.set, ops.ProjectInput{
						ID: strings.Join(c.Args().Slice(), " "),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				}),
			},
		},
	}
}

func lensCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "lens",
		Usage:     "Show the literature lens of a card (network lookups need hybrid mode)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Usage: "Ignore the cache and recompute"},
			&cli.BoolFlag{Name: "cached", Usage: "Only show a cached lens"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Lens(c.Context, s.st, s.orch, ops.LensInput{
				ID:         c.Args().First(),
				Refresh:    c.Bool("refresh"),
				CachedOnly: c.Bool("cached"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func similarCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "similar",
		Usage:     "Find works similar to a card (hybrid mode only)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Max works (default 5)"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Similar(c.Context, s.st, s.set, s.finder, ops.SimilarInput{
				ID:    c.Args().First(),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func exportCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export active cards oldest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id (default: current project)"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Export every project"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: ops.FormatMarkdown, Usage: "md|html|text"},
			&cli.BoolFlag{Name: "no-citations", Usage: "Drop citation markers and the sources list"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to this file"},
			&cli.BoolFlag{Name: "to-file", Usage: "Write to the default exports directory"},
			&cli.BoolFlag{Name: "json", Usage: "Print the JSON result instead of the document"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Export(c.Context, s.st, s.set, s.cfg, ops.ExportInput{
				ProjectID:   c.String("project"),
				AllProjects: c.Bool("all"),
				Format:      c.String("format"),
				NoCitations: c.Bool("no-citations"),
				ToFile:      c.Bool("to-file"),
				Path:        c.String("output"),
			})
			if err != nil {
				return outputError(err)
			}
			if output.Path != "" || c.Bool("json") {
				return outputJSON(output)
			}
			_, err = fmt.Fprintln(os.Stdout, output.Content)
			return err
		}),
	}
}

func sweepCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Purge cards whose trash retention has expired",
		Action: run(func(c *cli.Context, s *services) error {
			output, err := ops.Sweep(c.Context, s.reaper)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func modeCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:      "mode",
		Usage:     "Show or set the network mode (offline|hybrid)",
		ArgsUsage: "[offline|hybrid]",
		Action: run(func(c *cli.Context, s *services) error {
			var (
				output *ops.ModeOutput
				err    error
			)
			if c.NArg() == 0 {
				output, err = ops.GetMode(s.set)
			} else {
				output, err = ops.SetMode(s.set, c.Args().First())
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		}),
	}
}

func serveCmd(run runFunc) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API and run the trash reaper until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config listen_addr)"},
		},
		Action: run(func(c *cli.Context, s *services) error {
			addr := c.String("addr")
			if addr == "" {
				addr = s.cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, s, addr)
		}),
	}
}

// serve runs the API and the reaper until ctx is cancelled or the API fails.
func serve(ctx context.Context, s *services, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	srv := api.NewServer(s.apiDeps(), addr)

	g.Go(func() error {
		return api.Run(ctx, srv, s.log)
	})
	g.Go(func() error {
		s.reaper.Run(ctx)
		return nil
	})
	return g.Wait()
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
