package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/partline/partline"
	"github.com/partline/partline/journal"
	"github.com/partline/partline/score"
	"github.com/partline/partline/transport"
)

var playFlags = []cli.Flag{
	cli.DurationFlag{
		Name:  "for, f",
		Usage: "how long to run the clock",
		Value: 10 * time.Second,
	},
	cli.StringFlag{
		Name:  "journal, j",
		Usage: "record fired events to a sqlite `FILE`",
	},
	cli.BoolFlag{
		Name:  "quiet, q",
		Usage: "suppress per-event output",
	},
}

func play(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errors.New("play needs a score file")
	}
	sc, err := score.Load(path)
	if err != nil {
		return err
	}

	var jnl *journal.Journal
	if out := ctx.String("journal"); out != "" {
		if jnl, err = journal.Open(out); err != nil {
			return err
		}
		defer jnl.Close()
	}

	tr := transport.New(transport.Config{BPM: sc.BPM, PPQ: sc.PPQ})
	quiet := ctx.Bool("quiet")

	var parts []*partline.Part
	for _, spec := range sc.Parts {
		name := spec.Name
		cb := func(tick int64, value any) {
			if !quiet {
				fmt.Printf("%8s ticks  %-12s %-10s %v\n",
					humanize.Comma(tick), sc.Conv.ToNotation(tick), name, value)
			}
		}
		if jnl != nil {
			cb = jnl.Wrap(name, cb)
		}
		p := spec.NewPart(tr, cb)
		p.Start(0, 0)
		parts = append(parts, p)
	}
	defer func() {
		for _, p := range parts {
			p.Dispose()
		}
	}()

	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Duration("for"))
	defer cancel()

	fmt.Printf("playing %s: %d part(s) at %g bpm, tick = %s\n",
		path, len(sc.Parts), sc.BPM, tr.TickDuration())
	tr.Run(runCtx)
	fmt.Printf("stopped after %s ticks\n", humanize.Comma(tr.Ticks()))

	if jnl != nil {
		n, err := jnl.Count()
		if err != nil {
			return err
		}
		fmt.Printf("journaled %s fired event(s)\n", humanize.Comma(n))
	}
	return nil
}
