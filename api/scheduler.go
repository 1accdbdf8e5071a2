/*
scheduler.go - Automated daily report export

PURPOSE:
  Periodically writes the previous day's attendance report to disk as an
  XLSX workbook, so that each closed day has a file payroll can pick up.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets yesterday relative to the scheduler clock
  - Skips days whose file already exists (restarts are idempotent)
  - A day with no recorded attendance still gets an (empty) workbook

CONFIGURATION:
  - Dir:           Output directory (REPORT_DIR)
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled:       Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReportScheduler(aggregator, "./reports", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: DailyReport endpoint (on-demand export)
  - report/export/xlsx.go: workbook layout
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/report/export"
)

// ReportScheduler exports one daily report per closed day.
type ReportScheduler struct {
	Reports       *report.Aggregator
	Dir           string
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReportScheduler creates a new scheduler.
func NewReportScheduler(reports *report.Aggregator, dir string, logger *slog.Logger) *ReportScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportScheduler{
		Reports:       reports,
		Dir:           dir,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		Logger:        logger,
	}
}

// Start begins the scheduler.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.ticker != nil {
		rs.Logger.Info("report scheduler not started", "enabled", rs.Enabled)
		return
	}

	rs.stop = make(chan struct{})
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("report scheduler started", "interval", rs.CheckInterval, "dir", rs.Dir)
}

// Stop stops the scheduler and waits for a running export to finish.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("report scheduler stopped")
	}
}

func (rs *ReportScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.check()

	for {
		select {
		case <-rs.ticker.C:
			rs.check()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReportScheduler) check() {
	path, written, err := rs.RunNow(context.Background())
	switch {
	case err != nil:
		rs.Logger.Error("daily report export failed", "err", err)
	case written:
		rs.Logger.Info("daily report exported", "path", path)
	}
}

// RunNow exports yesterday's report unless its file already exists.
// Returns the file path and whether it was written by this call.
func (rs *ReportScheduler) RunNow(ctx context.Context) (string, bool, error) {
	day := generic.DateOf(rs.Now()).AddDays(-1)
	path := filepath.Join(rs.Dir, fmt.Sprintf("daily-%s.xlsx", day))

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	rep, err := rs.Reports.ByDate(ctx, day)
	if err != nil {
		return path, false, err
	}
	data, err := export.XLSX(rep, report.Summarize(rep))
	if err != nil {
		return path, false, err
	}

	if err := os.MkdirAll(rs.Dir, 0o755); err != nil {
		return path, false, fmt.Errorf("failed to create report dir: %w", err)
	}
	// The existence check above must never see a partial file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return path, false, fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return path, false, fmt.Errorf("failed to finalize report: %w", err)
	}
	return path, true, nil
}

// NextRunTime returns when the next scheduled check will occur.
func (rs *ReportScheduler) NextRunTime() time.Time {
	return rs.Now().Add(rs.CheckInterval)
}
