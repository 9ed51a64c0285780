// Package downloader fetches planned CDN assets concurrently. It never
// touches the data API: every URL in a plan is already resolved, so a
// download spends no request budget.
package downloader

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"igstat/pkg/errors"
	"igstat/pkg/logger"
	"igstat/pkg/metadata"
	"igstat/pkg/models"
	"igstat/pkg/ratelimit"
	"igstat/pkg/storage"
)

const defaultWorkers = 4

// job is one asset handed to a worker.
type job struct {
	asset models.DownloadAsset
}

// jobResult is the outcome of one asset fetch.
type jobResult struct {
	asset models.DownloadAsset
	size  int64
	err   error
}

// Downloader runs download plans against a storage directory.
type Downloader struct {
	store   *storage.Manager
	http    *http.Client
	limiter ratelimit.Limiter
	workers int
	log     logger.Logger
}

// Option adjusts a Downloader.
type Option func(*Downloader)

// WithWorkers sets the worker count.
func WithWorkers(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithHTTPClient swaps the HTTP client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) { d.http = client }
}

// WithLimiter sets the per-asset rate limiter.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(d *Downloader) { d.limiter = l }
}

// New builds a downloader that saves into dir.
func New(dir string, log logger.Logger, opts ...Option) (*Downloader, error) {
	store, err := storage.NewManager(dir)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}

	d := &Downloader{
		store:   store,
		http:    &http.Client{Timeout: 60 * time.Second},
		workers: defaultWorkers,
		log:     log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run fetches every asset in the plan. Individual asset failures are
// recorded in the manifest rather than aborting the run; only an empty
// plan or a cancelled context fails outright.
func (d *Downloader) Run(ctx context.Context, plan *models.DownloadPlan) (*models.DownloadResult, error) {
	if plan == nil || len(plan.Assets) == 0 {
		return nil, errors.New(errors.ErrorTypeNotFound, "nothing to download")
	}

	d.log.InfoWithFields("starting download", map[string]interface{}{
		"source": plan.Source,
		"owner":  plan.Owner,
		"assets": len(plan.Assets),
	})

	jobs := make(chan job, len(plan.Assets))
	results := make(chan jobResult, len(plan.Assets))

	workers := d.workers
	if workers > len(plan.Assets) {
		workers = len(plan.Assets)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go d.worker(ctx, &wg, jobs, results)
	}

	for _, asset := range plan.Assets {
		jobs <- job{asset: asset}
	}
	close(jobs)

	wg.Wait()
	close(results)

	manifest := metadata.FromPlan(plan)
	for res := range results {
		manifest.Record(res.asset, res.size, res.err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metaPath, err := manifest.Save(d.store.OutputDir())
	if err != nil {
		d.log.WarnWithFields("failed to write download manifest", map[string]interface{}{
			"error": err.Error(),
		})
		metaPath = ""
	}

	result := &models.DownloadResult{
		Dir:          d.store.OutputDir(),
		Files:        manifest.Files(),
		Failed:       manifest.Failed(),
		MetadataPath: metaPath,
		CompletedAt:  time.Now().UTC(),
	}

	d.log.InfoWithFields("download finished", map[string]interface{}{
		"source": plan.Source,
		"files":  len(result.Files),
		"failed": result.Failed,
	})
	return result, nil
}

func (d *Downloader) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan job, results chan<- jobResult) {
	defer wg.Done()

	for j := range jobs {
		if err := ctx.Err(); err != nil {
			results <- jobResult{asset: j.asset, err: err}
			continue
		}

		size, err := d.fetch(ctx, j.asset)
		if err != nil {
			d.log.WarnWithFields("asset download failed", map[string]interface{}{
				"filename": j.asset.Filename,
				"error":    err.Error(),
			})
		}
		results <- jobResult{asset: j.asset, size: size, err: err}
	}
}

// fetch downloads one asset, skipping files already on disk.
func (d *Downloader) fetch(ctx context.Context, asset models.DownloadAsset) (int64, error) {
	if d.store.IsSaved(asset.Filename) {
		d.log.DebugWithFields("asset already downloaded", map[string]interface{}{
			"filename": asset.Filename,
		})
		return 0, nil
	}

	if d.limiter != nil && !d.limiter.Allow() {
		d.limiter.Wait()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("bad asset url: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return 0, errors.Newf(errors.ErrorTypeNetwork, "download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf(errors.ErrorTypeServerError, "cdn returned status %d", resp.StatusCode)
	}

	size, err := d.store.Save(resp.Body, asset.Filename)
	if err != nil {
		return 0, fmt.Errorf("save failed: %w", err)
	}
	return size, nil
}

// Dir returns the downloader's output directory.
func (d *Downloader) Dir() string {
	return d.store.OutputDir()
}
