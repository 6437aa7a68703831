package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/internal/domain/ranking"
	"github.com/emahq/mers/pkg/logger"
)

// rankPool fans player ranking out to a fixed set of workers. Each
// player's computation is independent, so the pass parallelizes freely;
// position assignment stays sequential in the caller.
type rankPool struct {
	workers int
	log     logger.Logger
}

func newRankPool(workers int, log logger.Logger) *rankPool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &rankPool{workers: workers, log: log}
}

// rankAll computes the ranking value of every player for one ruleset.
// On cancellation the remaining players keep their previous values.
func (p *rankPool) rankAll(ctx context.Context, rs model.Ruleset, players []*model.Player, byPlayer map[int][]*model.Result) error {
	jobs := make(chan *model.Player)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pl := range jobs {
				ranking.RankPlayer(pl, rs, byPlayer[pl.ID])
			}
		}()
	}

	var err error
	for _, pl := range players {
		if err = ctx.Err(); err != nil {
			break
		}
		jobs <- pl
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		p.log.Warn(ctx, "ranking pass canceled",
			logger.String("ruleset", string(rs)),
			logger.Error(err))
	}
	return err
}
