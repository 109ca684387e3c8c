package dataset

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/worldrag/internal/config"
)

// Report lists the files Provision wrote, kept, and failed on.
type Report struct {
	Downloaded []string
	Skipped    []string
	Failed     map[string]error
}

// Provision fetches the World Bank CSV and the GEM report concurrently.
// A file that exists is kept unless DATASET_REFRESH is set. Failures are
// collected in the report; the returned error joins them.
func Provision(ctx context.Context, cfg *config.Config) (*Report, error) {
	report := &Report{Failed: make(map[string]error)}
	if cfg.SkipDownload {
		log.Info().Msg("dataset download skipped")
		return report, nil
	}

	jobs := []struct {
		path string
		run  func(context.Context) error
	}{
		{
			path: cfg.WorldDataCSV,
			run: func(ctx context.Context) error {
				return NewWorldBank(cfg.WorldBankURL).SaveCSV(ctx, cfg.WorldDataCSV)
			},
		},
		{
			path: cfg.GEMPDF,
			run: func(ctx context.Context) error {
				client := &http.Client{Timeout: 5 * time.Minute}
				return DownloadFile(ctx, client, cfg.GEMPDFURL, cfg.GEMPDF)
			},
		},
	}

	// Each job reports into its own slot, so one failure does not stop the other.
	errs := make([]error, len(jobs))
	ran := make([]bool, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		if job.path == "" {
			continue
		}
		if !cfg.DatasetRefresh && exists(job.path) {
			report.Skipped = append(report.Skipped, job.path)
			continue
		}

		ran[i] = true
		g.Go(func() error {
			if err := job.run(ctx); err != nil {
				log.Error().Err(err).Str("path", job.path).Msg("failed to provision dataset")
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, job := range jobs {
		switch {
		case !ran[i]:
		case errs[i] != nil:
			report.Failed[job.path] = errs[i]
		default:
			report.Downloaded = append(report.Downloaded, job.path)
		}
	}

	return report, errors.Join(errs...)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
