package main

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/fetcher"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/parallel"
	"github.com/sells-group/project1899/internal/runlog"
)

func parallelOpts() parallel.Options {
	return parallel.Options{Workers: cfg.Workers, ShardSize: cfg.ShardSize}
}

func newResolver() *fetcher.Resolver {
	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
	ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{
		Timeout:    timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
	return fetcher.NewResolver(httpF, ftpF, filepath.Join(cfg.Fetch.TempDir, "cache"))
}

// tracked runs fn as one stage entry in the run log. An empty runlog path
// disables tracking.
func tracked(ctx context.Context, stage model.Stage, fn func(ctx context.Context, runID string) (*runlog.Result, error)) error {
	if cfg.RunLog.Path == "" {
		_, err := fn(ctx, "")
		return err
	}

	rl, err := runlog.Open(ctx, cfg.RunLog.Path)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck

	id, err := rl.Start(ctx, stage)
	if err != nil {
		return err
	}

	res, runErr := fn(ctx, id)
	if runErr != nil {
		// The stage context may already be cancelled.
		if err := rl.Fail(context.WithoutCancel(ctx), id, runErr); err != nil {
			zap.L().Warn("failed to record run failure", zap.String("run_id", id), zap.Error(err))
		}
		return runErr
	}
	return rl.Complete(ctx, id, res)
}
