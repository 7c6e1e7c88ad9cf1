package scanrunner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"securbot/internal/ports"
)

// ScanProcessor performs the scan work for one dispatched job.
type ScanProcessor interface {
	Process(ctx context.Context, job ports.ScanJob) error
}

// Run claims queued scans from storage and processes them on concurrency
// workers until ctx is cancelled. Jobs already claimed finish on a context
// detached from ctx; Run returns once they have.
func Run(ctx context.Context, repo ports.JobRepository, processor ScanProcessor, concurrency int, pollInterval time.Duration, log *logrus.Entry) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.ScanJob, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		defer close(jobsCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							log.WithError(err).Error("job claim error")
						}
						break
					}
					if !found {
						break
					}
					jobsCh <- job
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				if err := processor.Process(context.WithoutCancel(ctx), job); err != nil {
					log.WithFields(logrus.Fields{"worker": idx, "scan_id": job.ScanID}).WithError(err).Error("job failed")
				}
			}
		}(i)
	}
	wg.Wait()
}
