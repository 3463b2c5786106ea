package scheduler

import (
	"context"
	"strconv"
	"sync"

	"github.com/crashteamdev/ke-data-scrapper/internal/cache"
	"github.com/crashteamdev/ke-data-scrapper/internal/config"
	"github.com/crashteamdev/ke-data-scrapper/internal/crawl"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"
	"github.com/crashteamdev/ke-data-scrapper/internal/tree"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Scheduler runs the recurring crawl epochs. The category job refreshes the
// tree the product and position jobs plan from; the purge job resets the
// seen-set and product cache so the next epoch re-emits everything.
type Scheduler struct {
	crawler      *crawl.Crawler
	productCache cache.ProductCache
	seen         state.SeenSet
	cfg          config.SchedulerConfig
	concurrency  int

	cron     *cron.Cron
	inFlight sync.Map

	mu       sync.Mutex
	roots    []int64
	childMap map[int64][]int64
}

func NewScheduler(crawler *crawl.Crawler, productCache cache.ProductCache, seen state.SeenSet, cfg config.SchedulerConfig, concurrency int) *Scheduler {
	return &Scheduler{
		crawler:      crawler,
		productCache: productCache,
		seen:         seen,
		cfg:          cfg,
		concurrency:  concurrency,
	}
}

// Start registers the cron triggers and primes the category tree so the
// first product and position runs have categories to plan from.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	jobs := []struct {
		spec string
		name string
		run  func(context.Context)
	}{
		{s.cfg.CategorySpec, "categories", s.runCategories},
		{s.cfg.ProductSpec, "products", s.runProducts},
		{s.cfg.PositionSpec, "positions", s.runPositions},
		{s.cfg.PurgeSpec, "purge", s.runPurge},
	}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() { job.run(ctx) }); err != nil {
			return err
		}
		log.Infof("Registered %s job with spec %q", job.name, job.spec)
	}

	s.runCategories(ctx)

	c.Start()
	s.cron = c
	return nil
}

// Stop halts the cron triggers and waits for running invocations of the
// trigger functions. Crawls already dispatched keep going until ctx cancels.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info("Scheduler stopped")
}

// tryLock is the single-flight gate: one run per job key at a time, an
// overlapping trigger is skipped instead of queued.
func (s *Scheduler) tryLock(key string) (func(), bool) {
	if _, loaded := s.inFlight.LoadOrStore(key, struct{}{}); loaded {
		log.Warnf("Job %q is still running, skipping this trigger", key)
		return nil, false
	}
	return func() { s.inFlight.Delete(key) }, true
}

func (s *Scheduler) runCategories(ctx context.Context) {
	release, ok := s.tryLock("categories")
	if !ok {
		return
	}
	defer release()

	merged, err := s.crawler.CrawlCategories(ctx)
	if err != nil {
		log.Errorf("Categories crawl failed: %v", err)
		return
	}
	s.setTree(merged)
}

func (s *Scheduler) setTree(merged []domain.Category) {
	roots := make([]int64, 0, len(merged))
	for _, root := range merged {
		roots = append(roots, root.ID)
	}
	s.mu.Lock()
	s.roots = roots
	s.childMap = tree.ChildMap(merged)
	s.mu.Unlock()
}

func (s *Scheduler) planned() ([]int64, map[int64][]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roots, s.childMap
}

func (s *Scheduler) runProducts(ctx context.Context) {
	roots, childMap := s.planned()
	if len(roots) == 0 {
		log.Warn("No categories known yet, skipping product run")
		return
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, rootID := range roots {
		release, ok := s.tryLock("products:" + formatID(rootID))
		if !ok {
			continue
		}
		g.Go(func() error {
			defer release()
			if err := s.crawler.CrawlProducts(ctx, rootID, childMap); err != nil {
				log.Errorf("Product crawl for root category %d failed: %v", rootID, err)
			}
			return nil
		})
	}
	g.Wait()
}

func (s *Scheduler) runPositions(ctx context.Context) {
	roots, childMap := s.planned()
	if len(roots) == 0 {
		log.Warn("No categories known yet, skipping position run")
		return
	}
	categoryIDs := flatten(roots, childMap)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, categoryID := range categoryIDs {
		release, ok := s.tryLock("positions:" + formatID(categoryID))
		if !ok {
			continue
		}
		g.Go(func() error {
			defer release()
			if _, err := s.crawler.CrawlPositions(ctx, categoryID); err != nil {
				log.Errorf("Position crawl for category %d failed: %v", categoryID, err)
			}
			return nil
		})
	}
	g.Wait()
}

// runPurge opens a new epoch: clear the seen-set so products are re-emitted
// and drop the position cache so stale detail does not leak across epochs.
func (s *Scheduler) runPurge(ctx context.Context) {
	release, ok := s.tryLock("purge")
	if !ok {
		return
	}
	defer release()

	if err := s.seen.Reset(ctx); err != nil {
		log.Errorf("Failed to reset seen products: %v", err)
	}
	if err := s.productCache.Purge(ctx); err != nil {
		log.Errorf("Failed to purge product cache: %v", err)
	}
	log.Info("Purge finished, next crawl starts a fresh epoch")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// flatten lists every category id reachable from the roots, depth first,
// deduplicated. Position crawls run per category, not per subtree.
func flatten(roots []int64, childMap map[int64][]int64) []int64 {
	var out []int64
	seen := make(map[int64]struct{})
	var walk func(id int64)
	walk = func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
		for _, child := range childMap[id] {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}
