package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
	"TWPull/internal/service/ratelimit"
	"TWPull/pkg/cache"
	"TWPull/pkg/logger"
	"TWPull/pkg/util"
)

// tw50Symbols is the fixed Taiwan 50 roster.
var tw50Symbols = []string{
	"2330", "2454", "2882", "2881", "3008", "2886", "2891", "2317",
	"2002", "1303", "2412", "1301", "2308", "2303", "3711", "2357",
	"2382", "2395", "2409", "6505", "2474", "5871", "2892", "2884",
	"1216", "1101", "2207", "2885", "2890", "1102", "3045", "2883",
	"2912", "6415", "3034", "2379", "2408", "2327", "2105", "5880",
	"2801", "6446", "3481", "2618", "2609", "1590", "2615", "2888",
	"2887", "6582",
}

// fallbackRoster covers the major listed names when both upstream sources
// are unreachable and nothing was cached.
var fallbackRoster = []string{
	"2330", "2454", "2882", "2881", "3008", "2886", "2891", "2317",
	"2002", "1303", "2412", "1301", "2308", "2303", "3711", "2357",
	"2382", "2395", "2409", "6505",
}

// TWMIDCAP takes this range of the sorted full roster as a mid-cap proxy.
const (
	midcapLow  = 50
	midcapHigh = 150
)

var rosterCacheKey = cache.GenerateKey("roster", "full")

// CollectResult summarizes one collection run.
type CollectResult struct {
	Index       models.Index  `json:"index"`
	Instruments int           `json:"instruments"`
	Added       int           `json:"added"`
	Removed     int           `json:"removed"`
	Duration    time.Duration `json:"duration"`
}

// InstrumentCollector fetches index constituents and persists them.
type InstrumentCollector struct {
	twse     drepo.ExchangeSource
	tpex     drepo.ExchangeSource
	store    drepo.InstrumentStore
	history  drepo.HistoryStore
	pub      drepo.Publisher
	cache    cache.Service
	metrics  drepo.Metrics
	limiter  *ratelimit.Limiter
	log      *logger.Logger
	cacheDir string
	cacheTTL time.Duration
}

// NewInstrumentCollector creates a new InstrumentCollector. history, pub and
// roster cache may be nil; the collector degrades to filesystem-only output.
func NewInstrumentCollector(
	twse drepo.ExchangeSource,
	tpex drepo.ExchangeSource,
	store drepo.InstrumentStore,
	history drepo.HistoryStore,
	pub drepo.Publisher,
	c cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	cacheDir string,
	cacheTTL time.Duration,
) *InstrumentCollector {
	return &InstrumentCollector{
		twse:     twse,
		tpex:     tpex,
		store:    store,
		history:  history,
		pub:      pub,
		cache:    c,
		metrics:  metrics,
		limiter:  ratelimit.New(),
		log:      log,
		cacheDir: cacheDir,
		cacheTTL: cacheTTL,
	}
}

// Collect fetches the index roster, writes the instruments file, records the
// snapshot, and publishes membership changes.
func (ic *InstrumentCollector) Collect(ctx context.Context, index models.Index) (*CollectResult, error) {
	start := time.Now()
	ic.log.Info("collect started", logger.String("index", string(index)))

	symbols, err := ic.rosterFor(ctx, index)
	if err != nil {
		ic.metrics.RecordError("collect")
		return nil, fmt.Errorf("collect %s: %w", index, err)
	}

	now := util.TaipeiMidnight(time.Now())
	instruments := make([]models.Instrument, 0, len(symbols))
	for _, s := range symbols {
		instruments = append(instruments, models.Instrument{
			Symbol:    s,
			StartDate: index.BenchStartDate(),
			EndDate:   models.DefaultEndDate(),
		})
	}

	changes := ic.diffChanges(ctx, index, symbols, now)

	if err := ic.store.Write(ctx, index, instruments); err != nil {
		ic.metrics.RecordError("store_write")
		return nil, fmt.Errorf("write instruments: %w", err)
	}

	ic.recordHistory(ctx, index, instruments, changes, now)
	ic.publishChanges(ctx, index, changes)

	added, removed := countChanges(changes)
	ic.metrics.RecordCollected(string(index), len(instruments))
	ic.metrics.RecordLastRun(string(index), now)
	ic.metrics.RecordLatency("collect", time.Since(start).Seconds())

	ic.log.Info("collect finished",
		logger.String("index", string(index)),
		logger.Int("instruments", len(instruments)),
		logger.Int("added", added),
		logger.Int("removed", removed),
		logger.Duration("took", time.Since(start)))

	return &CollectResult{
		Index:       index,
		Instruments: len(instruments),
		Added:       added,
		Removed:     removed,
		Duration:    time.Since(start),
	}, nil
}

// SaveNewCompanies fetches the roster for the index and writes the raw
// companies CSV into the cache directory without touching instruments.
func (ic *InstrumentCollector) SaveNewCompanies(ctx context.Context, index models.Index) (string, error) {
	symbols, err := ic.rosterFor(ctx, index)
	if err != nil {
		return "", fmt.Errorf("save companies %s: %w", index, err)
	}

	if err := os.MkdirAll(ic.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	path := filepath.Join(ic.cacheDir, fmt.Sprintf("%s_companies.csv", index.FileStem()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create companies csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"symbol", "start_date", "end_date"}); err != nil {
		return "", err
	}
	for _, s := range symbols {
		rec := []string{s, util.FormatDate(index.BenchStartDate()), util.FormatDate(models.DefaultEndDate())}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write companies csv: %w", err)
	}

	ic.log.Info("companies csv saved",
		logger.String("index", string(index)),
		logger.String("path", path),
		logger.Int("companies", len(symbols)))
	return path, nil
}

// rosterFor resolves the normalized, sorted constituent symbols of an index.
func (ic *InstrumentCollector) rosterFor(ctx context.Context, index models.Index) ([]string, error) {
	if index == models.IndexTW50 {
		return normalizeAll(tw50Symbols)
	}

	full, err := ic.fullRoster(ctx)
	if err != nil {
		return nil, err
	}

	if index == models.IndexTWMIDCAP {
		lo, hi := midcapLow, midcapHigh
		if lo >= len(full) {
			return nil, fmt.Errorf("roster too small for midcap slice: %d companies", len(full))
		}
		if hi > len(full) {
			hi = len(full)
		}
		return full[lo:hi], nil
	}

	return full, nil
}

// fullRoster combines TWSE listed and TPEx OTC companies, de-duplicated and
// sorted. The result is cached for cacheTTL to avoid hammering the exchanges.
func (ic *InstrumentCollector) fullRoster(ctx context.Context) ([]string, error) {
	if ic.cache != nil {
		var cached []string
		if err := ic.cache.Get(ctx, rosterCacheKey, &cached); err == nil && len(cached) > 0 {
			ic.log.Debug("roster cache hit", logger.Int("companies", len(cached)))
			return cached, nil
		}
	}

	date := util.TaipeiMidnight(time.Now())
	var raw []string

	_ = ic.limiter.Wait(ctx, "twse", 3, 0.5)
	listed, err := ic.twse.FetchSymbols(ctx, date)
	if err != nil {
		ic.metrics.RecordError("twse_fetch")
		ic.log.Warn("twse companies fetch failed", logger.Error(err))
	} else {
		ic.log.Info("twse companies fetched", logger.Int("companies", len(listed)))
		raw = append(raw, listed...)
	}

	_ = ic.limiter.Wait(ctx, "tpex", 3, 0.5)
	otc, err := ic.tpex.FetchSymbols(ctx, date)
	if err != nil {
		// the tpex client already degraded to its fallback roster
		ic.metrics.RecordError("tpex_fetch")
		ic.log.Warn("tpex companies fetch failed, using fallback", logger.Error(err), logger.Int("fallback", len(otc)))
	} else {
		ic.log.Info("tpex companies fetched", logger.Int("companies", len(otc)))
	}
	raw = append(raw, otc...)

	if len(raw) == 0 {
		ic.log.Warn("no companies from any source, using fallback roster")
		raw = fallbackRoster
	}

	full, err := normalizeAll(raw)
	if err != nil {
		return nil, err
	}

	if ic.cache != nil {
		if err := ic.cache.Set(ctx, rosterCacheKey, full, ic.cacheTTL); err != nil {
			ic.log.Warn("roster cache set failed", logger.Error(err))
		}
	}
	return full, nil
}

// diffChanges compares the new roster against the previously persisted
// instruments file and emits add/remove records dated now.
func (ic *InstrumentCollector) diffChanges(ctx context.Context, index models.Index, symbols []string, now time.Time) []models.Change {
	if !ic.store.Exists(index) {
		return nil // first collection, nothing to diff
	}
	prev, err := ic.store.Read(ctx, index)
	if err != nil {
		ic.log.Warn("previous instruments unreadable, skipping diff", logger.Error(err))
		return nil
	}

	prevSet := make(map[string]struct{}, len(prev))
	for _, inst := range prev {
		prevSet[inst.Symbol] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		nextSet[s] = struct{}{}
	}

	var changes []models.Change
	for _, s := range symbols {
		if _, ok := prevSet[s]; !ok {
			changes = append(changes, models.Change{Symbol: s, Date: now, Type: models.ChangeAdd})
		}
	}
	for _, inst := range prev {
		if _, ok := nextSet[inst.Symbol]; !ok {
			changes = append(changes, models.Change{Symbol: inst.Symbol, Date: now, Type: models.ChangeRemove})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Symbol < changes[j].Symbol })
	return changes
}

func (ic *InstrumentCollector) recordHistory(ctx context.Context, index models.Index, instruments []models.Instrument, changes []models.Change, now time.Time) {
	if ic.history == nil {
		return
	}
	if err := ic.history.StoreSnapshot(ctx, index, instruments, now); err != nil {
		ic.metrics.RecordError("history_snapshot")
		ic.log.Warn("history snapshot failed", logger.Error(err))
	}
	if len(changes) == 0 {
		return
	}
	if err := ic.history.StoreChanges(ctx, index, changes); err != nil {
		ic.metrics.RecordError("history_changes")
		ic.log.Warn("history changes failed", logger.Error(err))
	}
}

func (ic *InstrumentCollector) publishChanges(ctx context.Context, index models.Index, changes []models.Change) {
	if ic.pub == nil || len(changes) == 0 {
		return
	}
	if err := ic.pub.PublishChanges(ctx, index, changes); err != nil {
		ic.metrics.RecordError("publish_changes")
		ic.log.Warn("change publish failed", logger.Error(err))
	}
}

func normalizeAll(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		norm, err := models.NormalizeSymbol(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	sort.Strings(out)
	return out, nil
}

// Close releases the publisher and history store.
func (ic *InstrumentCollector) Close() {
	if ic.pub != nil {
		_ = ic.pub.Close()
	}
	if ic.history != nil {
		_ = ic.history.Close()
	}
}

func countChanges(changes []models.Change) (added, removed int) {
	for _, c := range changes {
		if c.Type == models.ChangeAdd {
			added++
		} else {
			removed++
		}
	}
	return added, removed
}
