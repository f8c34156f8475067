// Command skirmish plays a free-for-all match against a running server:
// every entity hunts its nearest rival until one is left standing.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// Outcome summarizes a finished skirmish
type Outcome struct {
	MatchID    string
	Rounds     int
	Eliminated []string
	Survivors  []string
}

// player runs turns for one match
type player struct {
	client   *Client
	strategy *NearestTargetStrategy
	out      io.Writer
	logger   *zap.Logger
	delay    time.Duration
}

func (p *player) play(ctx context.Context, maxRounds int) (*Outcome, error) {
	outcome := &Outcome{MatchID: p.client.matchID}

	for outcome.Rounds < maxRounds && p.strategy.Remaining() > 1 {
		outcome.Rounds++
		for _, entity := range p.strategy.Order() {
			if !p.strategy.Alive(entity) {
				continue
			}
			if p.strategy.Remaining() <= 1 {
				break
			}
			eliminated, err := p.turn(ctx, outcome.Rounds, entity)
			if err != nil {
				return outcome, err
			}
			outcome.Eliminated = append(outcome.Eliminated, eliminated...)

			if p.delay > 0 {
				select {
				case <-ctx.Done():
					return outcome, ctx.Err()
				case <-time.After(p.delay):
				}
			}
		}
	}

	outcome.Survivors = p.strategy.Order()
	return outcome, nil
}

// turn performs one entity's action and returns who it eliminated
func (p *player) turn(ctx context.Context, round int, entity string) ([]string, error) {
	action := p.strategy.NextAction(entity)

	switch action.Kind {
	case ActionAdvance:
		result, err := p.client.Advance(ctx, entity, action.Cell, action.Steps)
		if err != nil {
			return nil, err
		}
		p.strategy.Moved(entity, result.To)
		fmt.Fprintf(p.out, "round %d: %s advances %s -> %s toward %s\n", round, entity, result.From, result.To, action.Target)
		return nil, nil

	case ActionStrike:
		if err := p.client.Remove(ctx, action.Target); err != nil {
			return nil, err
		}
		p.strategy.Removed(action.Target)
		fmt.Fprintf(p.out, "round %d: %s strikes %s at %s\n", round, entity, action.Target, action.Cell)
		return []string{action.Target}, nil

	case ActionFire:
		result, err := p.client.Victims(ctx, entity, action.Cell)
		if err != nil {
			return nil, err
		}
		if len(result.Victims) == 0 {
			fmt.Fprintf(p.out, "round %d: %s fires at %s and misses\n", round, entity, action.Cell)
			return nil, nil
		}
		hit := result.Victims[0]
		if err := p.client.Remove(ctx, hit.Entity); err != nil {
			return nil, err
		}
		p.strategy.Removed(hit.Entity)
		fmt.Fprintf(p.out, "round %d: %s fires from %s at %s and hits %s at %s\n",
			round, entity, result.From, action.Cell, hit.Entity, hit.Cell)
		return []string{hit.Entity}, nil
	}

	p.logger.Debug("no action", zap.String("entity", entity))
	return nil, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "skirmish",
		Usage: "play a free-for-all match through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "tactical grid server URL",
				Sources: cli.EnvVars("TACTICALGRID_API_URL"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "match configuration to start from",
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "play an existing match by ID instead of creating one",
			},
			&cli.IntFlag{
				Name:  "max-rounds",
				Value: 500,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "pause between turns",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "leave the match on the server when done",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
			},
		},
		Action: run,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer logger.Sync()

	client := NewClient(cmd.String("url"))
	logger.Info("connecting", zap.String("url", cmd.String("url")))

	if id := cmd.String("match"); id != "" {
		client.UseMatch(id)
	} else if _, err := client.CreateMatch(ctx, cmd.String("config")); err != nil {
		return err
	}

	match, err := client.GetMatch(ctx)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	fmt.Fprintf(out, "match %s (%s): %dx%d grid, %d entities\n",
		match.ID, match.ConfigName, match.GridSize, match.GridSize, match.EntityCount)

	p := &player{
		client:   client,
		strategy: NewNearestTargetStrategy(match),
		out:      out,
		logger:   logger,
		delay:    cmd.Duration("delay"),
	}
	outcome, playErr := p.play(ctx, cmd.Int("max-rounds"))

	if cmd.String("match") == "" && !cmd.Bool("keep") {
		if err := client.DeleteMatch(ctx); err != nil {
			logger.Warn("failed to delete match", zap.String("match", match.ID), zap.Error(err))
		}
	}
	if playErr != nil {
		return playErr
	}

	fmt.Fprintf(out, "after %d rounds: eliminated [%s], standing [%s]\n",
		outcome.Rounds, strings.Join(outcome.Eliminated, " "), strings.Join(outcome.Survivors, " "))
	return nil
}
