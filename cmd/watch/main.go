// Command watch follows one or more matches over the websocket endpoint and
// prints every occupancy change as it arrives.
//
//	watch --api-url http://localhost:8080 ab12 cd34
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/game/engine"
	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
	hub "github.com/wricardo/mcp-training/tacticalgrid/transport/websocket"
)

// wireMessage is a hub message with its payload left undecoded
type wireMessage struct {
	MatchID string          `json:"match_id"`
	Event   string          `json:"event"`
	Change  *service.Event  `json:"change,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// board mirrors one match's occupancy from the messages it receives
type board struct {
	matchID   string
	positions map[string]engine.Cell
}

func newBoard(matchID string) *board {
	return &board{matchID: matchID, positions: make(map[string]engine.Cell)}
}

// apply updates the board and describes the change. ok is false for
// messages that carry nothing to show.
func (b *board) apply(msg *wireMessage) (line string, ok bool, err error) {
	switch msg.Event {
	case hub.EventSnapshot:
		var entities []service.EntityInfo
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &entities); err != nil {
				return "", false, fmt.Errorf("decode snapshot: %w", err)
			}
		}
		b.positions = make(map[string]engine.Cell, len(entities))
		for _, e := range entities {
			b.positions[e.Entity] = e.Cell
		}
		return fmt.Sprintf("[%s] snapshot: %d entities %s", b.matchID, len(entities), b.summary()), true, nil

	case hub.EventOccupancy:
		change := msg.Change
		if change == nil {
			return "", false, nil
		}
		switch change.Type {
		case service.EventPlaced:
			if change.To != nil {
				b.positions[change.Entity] = *change.To
				return fmt.Sprintf("[%s] %s placed at %s", b.matchID, change.Entity, *change.To), true, nil
			}
		case service.EventRemoved:
			delete(b.positions, change.Entity)
			return fmt.Sprintf("[%s] %s removed", b.matchID, change.Entity), true, nil
		case service.EventMoved, service.EventAdvanced:
			if change.To != nil {
				b.positions[change.Entity] = *change.To
				from := "?"
				if change.From != nil {
					from = change.From.String()
				}
				return fmt.Sprintf("[%s] %s %s %s -> %s", b.matchID, change.Entity, change.Type, from, *change.To), true, nil
			}
		case service.EventDeleted:
			b.positions = make(map[string]engine.Cell)
			return fmt.Sprintf("[%s] match deleted", b.matchID), true, nil
		}
	}
	return "", false, nil
}

// summary lists entities in name order
func (b *board) summary() string {
	names := make([]string, 0, len(b.positions))
	for name := range b.positions {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + b.positions[name].String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// wsURL turns the API base URL into the websocket URL for a match
func wsURL(baseURL, matchID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("match", matchID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// printer serializes lines from several watchers
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

// watch streams one match until ctx is cancelled or the server hangs up
func watch(ctx context.Context, baseURL, matchID string, out *printer, logger *zap.Logger) error {
	endpoint, err := wsURL(baseURL, matchID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", matchID, err)
	}
	logger.Info("websocket connected", zap.String("match", matchID))

	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	b := newBoard(matchID)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read %s: %w", matchID, err)
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("websocket message parse error", zap.String("match", matchID), zap.Error(err))
			continue
		}
		line, ok, err := b.apply(&msg)
		if err != nil {
			logger.Warn("websocket message rejected", zap.String("match", matchID), zap.Error(err))
			continue
		}
		if ok {
			out.println(line)
		}
	}
}

// watchAll follows every match concurrently and returns the first error
func watchAll(ctx context.Context, baseURL string, matchIDs []string, w io.Writer, logger *zap.Logger) error {
	out := &printer{w: w}
	errs := make([]error, len(matchIDs))

	var wg sync.WaitGroup
	for i, id := range matchIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = watch(ctx, baseURL, id, out, logger)
		}(i, id)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func main() {
	cmd := &cli.Command{
		Name:      "watch",
		Usage:     "print live occupancy changes for matches",
		ArgsUsage: "MATCH_ID [MATCH_ID...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("TACTICALGRID_API_URL"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log connection details to stderr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("at least one match ID is required")
			}

			logger := zap.NewNop()
			if cmd.Bool("verbose") {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watchAll(ctx, cmd.String("api-url"), cmd.Args().Slice(), cmd.Root().Writer, logger)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
