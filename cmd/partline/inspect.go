package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/partline/partline"
	"github.com/partline/partline/score"
)

func inspect(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errors.New("inspect needs a score file")
	}
	sc, err := score.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %g bpm, %d ppq, %d part(s)\n", path, sc.BPM, sc.PPQ, len(sc.Parts))
	for _, spec := range sc.Parts {
		cfg := spec.Config
		fmt.Printf("\npart %q: %s, window [%s, %s), rate %g, probability %g",
			spec.Name, loopLabel(cfg.Loop),
			sc.Conv.ToNotation(cfg.LoopStart), sc.Conv.ToNotation(cfg.LoopEnd),
			cfg.PlaybackRate, cfg.Probability)
		if cfg.Humanize > 0 {
			fmt.Printf(", humanize ±%d ticks", cfg.Humanize)
		}
		if cfg.Mute {
			fmt.Print(", muted")
		}
		fmt.Printf("\n%s event(s):\n", humanize.Comma(int64(len(spec.Notes))))
		for _, n := range spec.Notes {
			fmt.Printf("  %8s ticks  %-12s %v\n",
				humanize.Comma(n.Tick), sc.Conv.ToNotation(n.Tick), n.Value)
		}
	}
	return nil
}

func loopLabel(loop int64) string {
	switch {
	case loop == partline.LoopForever:
		return "looping"
	case loop > 0:
		return fmt.Sprintf("looping %dx", loop)
	}
	return "one-shot"
}
