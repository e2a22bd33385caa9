package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"PriceSentinel/internal/cache"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/strategy"
)

// defaultHistoryLimit bounds the snapshots used for trend analysis.
const defaultHistoryLimit = 30

// Notifier delivers reports to the operator.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the collaborators of a Scheduler. Pricing and Notifier are optional.
type Deps struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Cache     cache.Cache
	Pricing   *pricing.Manager
	Notifier  Notifier
	Products  []config.Product
	Retention time.Duration
}

// Scheduler manages all cron tasks and the per-product collection pipeline.
type Scheduler struct {
	Cron *cron.Cron

	collector    *collector.Collector
	recorder     recorder.Recorder
	cache        cache.Cache
	pricing      *pricing.Manager
	notifier     Notifier
	products     []config.Product
	retention    time.Duration
	historyLimit int

	ctx    context.Context
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu        sync.Mutex
	lastTrend map[string]model.Trend
}

// NewScheduler creates a new Scheduler. ctx bounds the cron jobs.
func NewScheduler(ctx context.Context, deps Deps, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := deps.Cache
	if c == nil {
		c = cache.NewMemoryCache(0)
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		collector:    deps.Collector,
		recorder:     deps.Recorder,
		cache:        c,
		pricing:      deps.Pricing,
		notifier:     deps.Notifier,
		products:     deps.Products,
		retention:    deps.Retention,
		historyLimit: defaultHistoryLimit,
		ctx:          ctx,
		logger:       logger,
		now:          time.Now,
		newID:        newSnapshotID,
		lastTrend:    make(map[string]model.Trend),
	}
}

// RegisterAll registers the collection, digest and retention tasks.
func (s *Scheduler) RegisterAll(collectCron, digestCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(collectCron, s.collectAll); err != nil {
		return errors.Wrap(err, "register collect task")
	}
	if _, err := s.Cron.AddFunc(digestCron, s.dailyDigest); err != nil {
		return errors.Wrap(err, "register digest task")
	}
	if s.retention > 0 {
		if _, err := s.Cron.AddFunc(pruneCron, s.prune); err != nil {
			return errors.Wrap(err, "register prune task")
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("products", len(s.products)), zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes the collection task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.collectAll()
}

func (s *Scheduler) collectAll() {
	s.logger.Info("running collection task")
	for _, p := range s.products {
		if s.ctx.Err() != nil {
			return
		}
		if _, err := s.RunProduct(s.ctx, p.ID, ""); err != nil {
			s.logger.Error("collect product", zap.String("product", p.ID), zap.Error(err))
		}
	}
}

func (s *Scheduler) dailyDigest() {
	s.logger.Info("running daily digest")
	s.trySend(s.ctx, notifier.FormatDigest(s.now(), s.digestEntries(s.ctx)))
}

func (s *Scheduler) digestEntries(ctx context.Context) []notifier.DigestEntry {
	entries := make([]notifier.DigestEntry, 0, len(s.products))
	for _, p := range s.products {
		e := notifier.DigestEntry{ProductID: p.ID}
		if snap, err := s.Latest(ctx, p.ID); err == nil {
			e.Snapshot = snap
		} else if !errors.Is(err, recorder.ErrNotFound) {
			s.logger.Warn("digest latest", zap.String("product", p.ID), zap.Error(err))
		}
		if report, err := s.TrendFor(ctx, p.ID, 0); err == nil {
			e.Trend = report.Trend
		}
		if s.pricing != nil {
			if st, ok := s.pricing.GetState(p.ID); ok {
				e.State = &st
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func (s *Scheduler) prune() {
	cutoff := s.now().Add(-s.retention)
	n, err := s.recorder.Prune(s.ctx, cutoff)
	if err != nil {
		s.logger.Error("prune history", zap.Error(err))
		return
	}
	s.logger.Info("history pruned", zap.Int("removed", n), zap.Time("before", cutoff))
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/price@BotName id" addresses the bot in group chats
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/products":
		ids := make([]string, 0, len(s.products))
		for _, p := range s.products {
			ids = append(ids, fmt.Sprintf("• %s (%s)", p.ID, p.Strategy))
		}
		if len(ids) == 0 {
			return "No products configured."
		}
		return "Tracked products:\n" + strings.Join(ids, "\n")
	case "/price", "/trend", "/pricing", "/collect":
		if _, ok := s.Product(arg); !ok {
			return fmt.Sprintf("Unknown product %q. Use /products.", arg)
		}
		return s.productCommand(ctx, cmd, arg)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) productCommand(ctx context.Context, cmd, id string) string {
	switch cmd {
	case "/price":
		snap, err := s.Latest(ctx, id)
		if err != nil && !errors.Is(err, recorder.ErrNotFound) {
			return "❌ " + err.Error()
		}
		return notifier.FormatProductReport(id, snap, nil)
	case "/trend":
		report, err := s.TrendFor(ctx, id, 7)
		if err != nil {
			return "❌ " + err.Error()
		}
		return notifier.FormatTrendReport(id, len(report.Points), report.Trend, report.ChangeVolatility, report.Forecast)
	case "/pricing":
		if s.pricing == nil {
			return "Auto-pricing is disabled."
		}
		st, ok := s.pricing.GetState(id)
		if !ok {
			return fmt.Sprintf("No pricing state for %s.", id)
		}
		return notifier.FormatPricingState(st)
	default:
		res, err := s.RunProduct(ctx, id, "")
		if err != nil {
			return "❌ collection failed: " + err.Error()
		}
		out := notifier.FormatProductReport(id, res.Snapshot, res.Position)
		if res.Snapshot.Recommendation == nil {
			out += "\n" + strategy.Describe(nil)
		}
		return out
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.logger.Error("send notification", zap.Error(err))
	}
}
