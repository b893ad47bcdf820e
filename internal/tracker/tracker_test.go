package tracker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"CommoditySentinel/internal/fetcher"
	"CommoditySentinel/internal/model"
)

func newCSVTracker(t *testing.T, f fetcher.Fetcher) (*Tracker, *CSVStore) {
	t.Helper()
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "trade_log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return New(store, f), store
}

func barsOn(dates []string, closes []float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(dates))
	for i, d := range dates {
		ts, _ := time.ParseInLocation(DateLayout, d, time.UTC)
		bars[i] = model.PriceBar{Time: ts, Open: closes[i], High: closes[i], Low: closes[i], Close: closes[i], Volume: 100}
	}
	return bars
}

func goldDirective(signalDate string, action model.Action) model.Directive {
	ts, _ := time.ParseInLocation(DateLayout, signalDate, time.UTC)
	return model.Directive{
		Asset:  "GOLD",
		Ticker: "GC=F",
		Action: action,
		Sizing: model.SizeFull,
		Score:  0.60,
		Close:  100,
		Verdict: model.Verdict{
			Asset:   "GOLD",
			OK:      true,
			LastBar: ts,
		},
	}
}

func TestRecord_Dedup(t *testing.T) {
	tr, store := newCSVTracker(t, &fetcher.MockFetcher{})
	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)

	d := goldDirective("2024-01-05", model.ActionLong)
	added, err := tr.Record([]model.Directive{d, d}, 5, now)
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	// Second run with the same directive adds nothing.
	added, err = tr.Record([]model.Directive{d}, 5, now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("rerun added = %d, want 0", added)
	}

	entries, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("log has %d entries, want 1", len(entries))
	}
	if entries[0].SignalDate != "2024-01-05" || entries[0].Direction != model.ActionLong {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestRecord_SkipsBlockedAndNeutral(t *testing.T) {
	tr, store := newCSVTracker(t, &fetcher.MockFetcher{})
	now := time.Now().UTC()

	blocked := goldDirective("2024-01-05", model.ActionNoTradeData)
	blocked.Verdict.OK = false
	neutral := goldDirective("2024-01-05", model.ActionNoTrade)

	added, err := tr.Record([]model.Directive{blocked, neutral}, 5, now)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	entries, _ := store.Load()
	if len(entries) != 0 {
		t.Errorf("log has %d entries, want 0", len(entries))
	}
}

func evalFixture(t *testing.T, direction model.Action, closes []float64) (Stats, []Entry) {
	t.Helper()
	dates := []string{
		"2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10",
		"2024-01-11", "2024-01-12", "2024-01-15",
	}
	mock := &fetcher.MockFetcher{Series: map[string]model.PriceSeries{
		"GC=F": {Bars: barsOn(dates, closes)},
	}}
	tr, store := newCSVTracker(t, mock)

	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)
	if _, err := tr.Record([]model.Directive{goldDirective("2024-01-05", direction)}, 5, now); err != nil {
		t.Fatal(err)
	}

	stats, err := tr.Evaluate(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	return stats, entries
}

func TestEvaluate_LongCorrect(t *testing.T) {
	stats, entries := evalFixture(t, model.ActionLong,
		[]float64{100, 101, 102, 103, 104, 105, 106})

	if len(entries) != 1 {
		t.Fatalf("log has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if !e.Evaluated {
		t.Fatal("entry should be evaluated")
	}
	if e.ExitDate != "2024-01-12" {
		t.Errorf("exit date = %s, want 2024-01-12", e.ExitDate)
	}
	if e.ExitClose != 105 {
		t.Errorf("exit close = %v, want 105", e.ExitClose)
	}
	if e.Return != 0.05 {
		t.Errorf("return = %v, want 0.05", e.Return)
	}
	if !e.Correct {
		t.Error("LONG with +5% return should be correct")
	}
	if stats.Overall.Trades != 1 || stats.Overall.Correct != 1 {
		t.Errorf("stats = %+v", stats.Overall)
	}
	if stats.Overall.Accuracy == nil || *stats.Overall.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", stats.Overall.Accuracy)
	}
}

func TestEvaluate_ShortCorrectOnDrop(t *testing.T) {
	_, entries := evalFixture(t, model.ActionShort,
		[]float64{100, 99, 98, 97, 96, 95, 94})

	e := entries[0]
	if !e.Evaluated {
		t.Fatal("entry should be evaluated")
	}
	if e.Return != -0.05 {
		t.Errorf("return = %v, want -0.05", e.Return)
	}
	if !e.Correct {
		t.Error("SHORT with -5% return should be correct")
	}
}

func TestEvaluate_LongWrongOnDrop(t *testing.T) {
	stats, entries := evalFixture(t, model.ActionLong,
		[]float64{100, 99, 98, 97, 96, 95, 94})

	if !entries[0].Evaluated || entries[0].Correct {
		t.Errorf("LONG with -5%% return should be evaluated and wrong: %+v", entries[0])
	}
	if stats.Overall.Wrong != 1 {
		t.Errorf("stats = %+v", stats.Overall)
	}
}

func TestEvaluate_InsufficientFutureData(t *testing.T) {
	dates := []string{"2024-01-05", "2024-01-08", "2024-01-09"}
	mock := &fetcher.MockFetcher{Series: map[string]model.PriceSeries{
		"GC=F": {Bars: barsOn(dates, []float64{100, 101, 102})},
	}}
	tr, store := newCSVTracker(t, mock)

	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)
	tr.Record([]model.Directive{goldDirective("2024-01-05", model.ActionLong)}, 5, now)

	stats, err := tr.Evaluate(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := store.Load()
	if entries[0].Evaluated {
		t.Error("entry with no exit bar yet must stay open")
	}
	if stats.Overall.Trades != 0 {
		t.Errorf("open entries must not count as trades: %+v", stats.Overall)
	}
	if stats.Overall.Accuracy != nil {
		t.Errorf("accuracy with zero evaluated trades must be nil, got %v", *stats.Overall.Accuracy)
	}
}

func TestEvaluate_HolidayAdvancesSignalDate(t *testing.T) {
	// Signal dated Saturday; the log entry scores from Monday's bar.
	dates := []string{
		"2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11",
		"2024-01-12", "2024-01-15", "2024-01-16",
	}
	mock := &fetcher.MockFetcher{Series: map[string]model.PriceSeries{
		"GC=F": {Bars: barsOn(dates, []float64{200, 201, 202, 203, 204, 210, 220})},
	}}
	tr, store := newCSVTracker(t, mock)

	now := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	tr.Record([]model.Directive{goldDirective("2024-01-06", model.ActionLong)}, 5, now)

	if _, err := tr.Evaluate(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	entries, _ := store.Load()
	e := entries[0]
	if !e.Evaluated {
		t.Fatal("entry should be evaluated from the next trading day")
	}
	if e.ExitDate != "2024-01-15" {
		t.Errorf("exit date = %s, want 2024-01-15", e.ExitDate)
	}
	if e.Return != 0.05 {
		t.Errorf("return = %v, want 0.05 (200 -> 210)", e.Return)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	dates := []string{
		"2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10",
		"2024-01-11", "2024-01-12", "2024-01-15",
	}
	mock := &fetcher.MockFetcher{Series: map[string]model.PriceSeries{
		"GC=F": {Bars: barsOn(dates, []float64{100, 101, 102, 103, 104, 105, 106})},
	}}
	tr, store := newCSVTracker(t, mock)

	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)
	tr.Record([]model.Directive{goldDirective("2024-01-05", model.ActionLong)}, 5, now)

	first, err := tr.Evaluate(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	afterFirst, _ := store.Load()

	second, err := tr.Evaluate(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	afterSecond, _ := store.Load()

	if len(afterFirst) != len(afterSecond) {
		t.Fatalf("entry count drifted: %d -> %d", len(afterFirst), len(afterSecond))
	}
	for i := range afterFirst {
		if afterFirst[i] != afterSecond[i] {
			t.Errorf("entry %d drifted: %+v -> %+v", i, afterFirst[i], afterSecond[i])
		}
	}
	if *first.Overall.Accuracy != *second.Overall.Accuracy ||
		first.Overall.Trades != second.Overall.Trades {
		t.Errorf("stats drifted: %+v -> %+v", first.Overall, second.Overall)
	}
}

func TestEvaluate_FetchFailureLeavesOthersAlone(t *testing.T) {
	// Only GC=F has data; the SI=F entry stays open without failing the run.
	dates := []string{
		"2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10",
		"2024-01-11", "2024-01-12", "2024-01-15",
	}
	mock := &fetcher.MockFetcher{Series: map[string]model.PriceSeries{
		"GC=F": {Bars: barsOn(dates, []float64{100, 101, 102, 103, 104, 105, 106})},
	}}
	tr, store := newCSVTracker(t, mock)

	silver := goldDirective("2024-01-05", model.ActionLong)
	silver.Asset = "SILVER"
	silver.Ticker = "SI=F"

	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)
	tr.Record([]model.Directive{goldDirective("2024-01-05", model.ActionLong), silver}, 5, now)

	stats, err := tr.Evaluate(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := store.Load()
	var gold, silverEntry *Entry
	for i := range entries {
		switch entries[i].Asset {
		case "GOLD":
			gold = &entries[i]
		case "SILVER":
			silverEntry = &entries[i]
		}
	}
	if gold == nil || !gold.Evaluated {
		t.Error("GOLD entry should be evaluated")
	}
	if silverEntry == nil || silverEntry.Evaluated {
		t.Error("SILVER entry should stay open after its fetch failed")
	}
	if _, ok := stats.ByAsset["SILVER"]; ok {
		t.Error("SILVER has no evaluated trades and must not appear in by-asset stats")
	}
}

func logEntry(asset, ticker string) Entry {
	return Entry{
		LoggedAt:    time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC),
		Asset:       asset,
		Ticker:      ticker,
		SignalDate:  "2024-01-05",
		Direction:   model.ActionLong,
		EntryClose:  100,
		HorizonDays: 5,
	}
}

func TestCSVStore_UpdateCyclesFromTwoHandles(t *testing.T) {
	// Two processes sharing one log file: each runs a full
	// load-append-save cycle; the second must not wipe out the first.
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	s1, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s1.Update(func(entries []Entry) ([]Entry, error) {
		return append(entries, logEntry("GOLD", "GC=F")), nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s2.Update(func(entries []Entry) ([]Entry, error) {
		if len(entries) != 1 {
			t.Errorf("second cycle loaded %d entries, want 1", len(entries))
		}
		return append(entries, logEntry("COPPER", "HG=F")), nil
	}); err != nil {
		t.Fatal(err)
	}

	out, err := s1.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("log has %d entries, want 2", len(out))
	}
}

func TestCSVStore_ConcurrentUpdatesKeepAllEntries(t *testing.T) {
	// Separate store handles so only the sidecar lock file serializes the
	// cycles, as it would across processes.
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	assets := []struct{ asset, ticker string }{
		{"GOLD", "GC=F"}, {"SILVER", "SI=F"}, {"COPPER", "HG=F"}, {"NATURAL GAS", "NG=F"},
	}

	var wg sync.WaitGroup
	for _, a := range assets {
		store, err := NewCSVStore(path)
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(asset, ticker string, s *CSVStore) {
			defer wg.Done()
			if err := s.Update(func(entries []Entry) ([]Entry, error) {
				return append(entries, logEntry(asset, ticker)), nil
			}); err != nil {
				t.Errorf("update %s: %v", asset, err)
			}
		}(a.asset, a.ticker, store)
	}
	wg.Wait()

	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	out, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(assets) {
		t.Fatalf("log has %d entries, want %d", len(out), len(assets))
	}
}

func TestRecord_TwoTrackersShareOneLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	s1, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	tr1 := New(s1, &fetcher.MockFetcher{})
	tr2 := New(s2, &fetcher.MockFetcher{})

	now := time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC)
	if _, err := tr1.Record([]model.Directive{goldDirective("2024-01-05", model.ActionLong)}, 5, now); err != nil {
		t.Fatal(err)
	}
	copper := goldDirective("2024-01-05", model.ActionLong)
	copper.Asset = "COPPER"
	copper.Ticker = "HG=F"
	if _, err := tr2.Record([]model.Directive{copper}, 5, now); err != nil {
		t.Fatal(err)
	}

	out, err := s1.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("log has %d entries, want 2", len(out))
	}
}

func TestCSVStore_CorruptFileRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	if err := os.WriteFile(path, []byte("time_utc,asset\n\"unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := store.Load()
	if err != nil {
		t.Fatalf("corrupt log must load as empty, got error %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("corrupt log loaded %d entries, want 0", len(entries))
	}
}

func TestCSVStore_RoundTrip(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "trade_log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	in := []Entry{
		{
			LoggedAt:    time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC),
			Asset:       "GOLD",
			Ticker:      "GC=F",
			SignalDate:  "2024-01-05",
			Direction:   model.ActionLong,
			EntryClose:  2042.5,
			HorizonDays: 5,
		},
		{
			LoggedAt:    time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC),
			Asset:       "NATURAL GAS",
			Ticker:      "NG=F",
			SignalDate:  "2024-01-05",
			Direction:   model.ActionShort,
			EntryClose:  2.87,
			HorizonDays: 5,
			Evaluated:   true,
			ExitDate:    "2024-01-12",
			ExitClose:   2.59,
			Return:      -0.097561,
			Correct:     true,
		},
	}
	if err := store.Save(in); err != nil {
		t.Fatal(err)
	}
	out, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("round trip lost entries: %d -> %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, in[i], out[i])
		}
	}
}

func TestComputeStats_PerAsset(t *testing.T) {
	entries := []Entry{
		{Asset: "GOLD", Evaluated: true, Correct: true},
		{Asset: "GOLD", Evaluated: true, Correct: false},
		{Asset: "COPPER", Evaluated: true, Correct: true},
		{Asset: "SILVER", Evaluated: false},
	}
	stats := ComputeStats(entries)

	if stats.Overall.Trades != 3 || stats.Overall.Correct != 2 || stats.Overall.Wrong != 1 {
		t.Errorf("overall = %+v", stats.Overall)
	}
	gold := stats.ByAsset["GOLD"]
	if gold.Accuracy == nil || *gold.Accuracy != 0.5 {
		t.Errorf("GOLD accuracy = %v, want 0.5", gold.Accuracy)
	}
	if _, ok := stats.ByAsset["SILVER"]; ok {
		t.Error("unevaluated-only asset must not appear in by-asset stats")
	}
}
