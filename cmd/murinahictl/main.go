package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lomoval/murinahi/internal/app"
	"github.com/lomoval/murinahi/internal/logger"
	"github.com/lomoval/murinahi/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "murinahictl",
		Usage: "Create events and record NG dates directly in the event store.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "./configs/config.yaml", Usage: "Path to configuration file"},
			&cli.StringFlag{Name: "env", Value: ".env", Usage: "Path to optional env file"},
		},
		Commands: []*cli.Command{
			createCommand(),
			getCommand(),
			updateCommand(),
			summaryCommand(),
			icalCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application over the configured store for the duration of one command.
func withApp(c *cli.Context, action func(ctx context.Context, events *app.App) error) error {
	config, err := NewConfig(c.String("config"), c.String("env"))
	if err != nil {
		return err
	}
	if err := logger.PrepareLogger(config.Logger); err != nil {
		return err
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()
	return action(c.Context, app.New(stor, app.WithConfig(config.Engine)))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArgs(c *cli.Context, names ...string) error {
	if c.NArg() != len(names) {
		return fmt.Errorf("expected arguments: %v", names)
	}
	return nil
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an event and print its id.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Event title"},
			&cli.StringFlag{Name: "start", Usage: "First date of the response window (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end", Usage: "Last date of the response window (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, events *app.App) error {
				id, err := events.CreateEvent(ctx, app.CreateEventParams{
					Title:     c.String("title"),
					StartDate: c.String("start"),
					EndDate:   c.String("end"),
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, id)
				return nil
			})
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the stored event document.",
		ArgsUsage: "<event id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "event id"); err != nil {
				return err
			}
			return withApp(c, func(ctx context.Context, events *app.App) error {
				e, err := events.GetEvent(ctx, c.Args().First())
				if err != nil {
					return err
				}
				if e == nil {
					return app.ErrEventNotFound
				}
				return printJSON(c.App.Writer, e)
			})
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace the NG dates of a participant.",
		ArgsUsage: "<event id> <participant id>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "date", Usage: "NG date (YYYY-MM-DD), repeatable"},
			&cli.StringFlag{Name: "name", Usage: "Display name, anonymous when empty"},
			&cli.BoolFlag{Name: "completed", Usage: "Mark input as completed"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "event id", "participant id"); err != nil {
				return err
			}
			completed := c.Bool("completed")
			params := app.UpdateParticipantParams{
				EventID:        c.Args().Get(0),
				ParticipantID:  c.Args().Get(1),
				NgDates:        append([]string{}, c.StringSlice("date")...),
				Name:           c.String("name"),
				InputCompleted: &completed,
			}
			return withApp(c, func(ctx context.Context, events *app.App) error {
				res, err := events.UpdateParticipant(ctx, params)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, res)
			})
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print NG counts and available dates of an event.",
		ArgsUsage: "<event id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "event id"); err != nil {
				return err
			}
			return withApp(c, func(ctx context.Context, events *app.App) error {
				s, err := events.Summary(ctx, c.Args().First())
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, s)
			})
		},
	}
}

func icalCommand() *cli.Command {
	return &cli.Command{
		Name:      "ical",
		Usage:     "Export available dates as iCalendar.",
		ArgsUsage: "<event id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Output file, stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, "event id"); err != nil {
				return err
			}
			return withApp(c, func(ctx context.Context, events *app.App) error {
				data, err := events.ExportICal(ctx, c.Args().First())
				if err != nil {
					return err
				}
				if out := c.String("out"); out != "" {
					return os.WriteFile(out, data, 0o644) //nolint:gosec
				}
				_, err = c.App.Writer.Write(data)
				return err
			})
		},
	}
}
