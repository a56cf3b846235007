package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/strategy"
)

// Evaluator produces valuation snapshots. *collector.Collector implements it.
type Evaluator interface {
	Profiles() []model.AssetProfile
	Lookup(key string) (model.AssetProfile, bool)
	Collect(ctx context.Context, profile model.AssetProfile) *model.Snapshot
	CollectAll(ctx context.Context) []*model.Snapshot
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Evaluator
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col Evaluator, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the refresh and report tasks.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow refreshes every asset and sends the report immediately (RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.refreshTask()
	s.reportTask()
}

// refreshTask re-evaluates every asset, records the summaries and alerts on
// band changes against the last recorded band.
func (s *Scheduler) refreshTask() {
	log.Info().Msg("running refresh task")
	for _, snap := range s.Collector.CollectAll(s.Ctx) {
		if !snap.OK() {
			log.Error().Str("asset", snap.Profile.ID).Err(snap.Err).Msg("refresh failed")
			continue
		}
		s.record(snap)
	}
}

func (s *Scheduler) record(snap *model.Snapshot) {
	asset := snap.Profile.ID
	prev, found, err := s.Recorder.LastBand(asset)
	if err != nil {
		log.Error().Str("asset", asset).Err(err).Msg("read last band")
	}
	if err := s.Recorder.RecordSnapshot(recorder.NewSnapshotRecord(snap)); err != nil {
		log.Error().Str("asset", asset).Err(err).Msg("record snapshot")
	}

	cur := snap.Classification.Band
	if !found || !bandChanged(prev, cur) {
		return
	}
	log.Info().Str("asset", asset).Str("from", string(prev)).Str("to", string(cur)).Msg("band change")
	if err := s.Recorder.RecordBandChange(&recorder.BandChange{
		Timestamp: s.now().UTC(),
		Asset:     asset,
		From:      prev,
		To:        cur,
		Deviation: snap.Valuation.CurrentDeviation,
	}); err != nil {
		log.Error().Str("asset", asset).Err(err).Msg("record band change")
	}
	s.trySend(notifier.FormatBandChange(snap, prev))
}

// bandChanged ignores moves into or out of indeterminate, which only reflect data gaps.
func bandChanged(prev, cur model.Band) bool {
	if prev == model.BandIndeterminate || cur == model.BandIndeterminate {
		return false
	}
	return prev != cur
}

func (s *Scheduler) reportTask() {
	log.Info().Msg("running report task")
	s.trySend(notifier.FormatReport(s.Collector.CollectAll(s.Ctx), s.now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(strings.ToLower(command))
	var cmd string
	if len(fields) > 0 {
		cmd = strings.TrimPrefix(fields[0], "/")
		if i := strings.IndexByte(cmd, '@'); i >= 0 {
			cmd = cmd[:i]
		}
	}

	switch cmd {
	case "all", "report":
		return notifier.FormatReport(s.Collector.CollectAll(s.Ctx), s.now())
	case "bands":
		if len(fields) > 1 {
			return s.assetBands(fields[1])
		}
		return notifier.FormatBands("", strategy.FixedThresholds{})
	case "help", "start", "":
		return notifier.FormatHelp(s.Collector.Profiles())
	}
	if p, ok := s.Collector.Lookup(cmd); ok {
		return notifier.FormatAssetReport(s.Collector.Collect(s.Ctx, p))
	}
	return "Unknown command.\n\n" + notifier.FormatHelp(s.Collector.Profiles())
}

// assetBands renders the bands of the asset's configured policy. Percentile
// lines need a fresh valuation.
func (s *Scheduler) assetBands(key string) string {
	p, ok := s.Collector.Lookup(key)
	if !ok {
		return "Unknown asset.\n\n" + notifier.FormatHelp(s.Collector.Profiles())
	}
	snap := s.Collector.Collect(s.Ctx, p)
	if !snap.OK() {
		return notifier.FormatAssetReport(snap)
	}
	policy, err := strategy.ForProfile(p.Policy, snap.Valuation)
	if err != nil {
		log.Error().Str("asset", p.ID).Err(err).Msg("band policy")
		return "Band policy unavailable for " + p.Name + "."
	}
	return notifier.FormatBands(p.Name, policy)
}

func (s *Scheduler) trySend(text string) {
	var err error
	if rs, ok := s.Notifier.(retrySender); ok {
		err = rs.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(s.Ctx, text)
	}
	if err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
