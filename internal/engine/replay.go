package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/polegion/internal/adaptive"
)

// ReplaySummary totals a replay run.
type ReplaySummary struct {
	Attempts   int
	Applied    int
	Skipped    int
	XPAwarded  int64
	Promotions int
	Demotions  int
}

func (s *ReplaySummary) add(o ReplaySummary) {
	s.Attempts += o.Attempts
	s.Applied += o.Applied
	s.Skipped += o.Skipped
	s.XPAwarded += o.XPAwarded
	s.Promotions += o.Promotions
	s.Demotions += o.Demotions
}

// DecodeAttempts reads one JSON attempt per line. Blank lines and lines
// starting with # are ignored.
func DecodeAttempts(r io.Reader) ([]adaptive.AttemptResult, error) {
	var out []adaptive.AttemptResult
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var a adaptive.AttemptResult
		if err := json.Unmarshal([]byte(text), &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}
	return out, nil
}

// Replay records attempts in bulk. Attempts for the same learner/topic are
// applied in input order; different keys run concurrently on up to workers
// goroutines. Invalid attempts are skipped and counted. Any other error
// stops the replay.
func (s *Service) Replay(ctx context.Context, attempts []adaptive.AttemptResult, workers int) (ReplaySummary, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		order  []adaptive.Key
		groups = make(map[adaptive.Key][]adaptive.AttemptResult)
	)
	for _, a := range attempts {
		k := a.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a)
	}

	var (
		mu    sync.Mutex
		total ReplaySummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, k := range order {
		batch := groups[k]
		g.Go(func() error {
			local, err := s.replayKey(gctx, batch)
			mu.Lock()
			total.add(local)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()

	s.log.Info("replay finished",
		"attempts", total.Attempts,
		"applied", total.Applied,
		"skipped", total.Skipped,
		"keys", len(order),
	)
	return total, err
}

func (s *Service) replayKey(ctx context.Context, batch []adaptive.AttemptResult) (ReplaySummary, error) {
	var sum ReplaySummary
	for _, a := range batch {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Attempts++
		res, err := s.Record(ctx, a)
		if errors.Is(err, adaptive.ErrInvalidAttempt) {
			s.log.Warn("replay skipped attempt", "learner_id", a.LearnerID, "topic_key", a.TopicKey, "error", err)
			sum.Skipped++
			continue
		}
		if res != nil && res.Result != nil {
			sum.Applied++
			sum.XPAwarded += int64(res.XPAwarded)
			switch {
			case res.Result.NextTier.Rank() > res.Result.Previous.Rank():
				sum.Promotions++
			case res.Result.NextTier.Rank() < res.Result.Previous.Rank():
				sum.Demotions++
			}
		}
		if err != nil {
			return sum, fmt.Errorf("replay %s: %w", a.Key(), err)
		}
	}
	return sum, nil
}
