package progress

import (
	"sync"
	"time"

	"github.com/agobrik/webtesttool-sub001/internal/model"
)

// Phase identifies what the scan is currently doing.
type Phase string

// Scan phases, in order.
const (
	PhaseCrawling Phase = "crawling"
	PhaseModules  Phase = "modules"
	PhaseDone     Phase = "done"
)

// Snapshot is a consistent point-in-time view of scan progress.
type Snapshot struct {
	// Phase is the current scan phase.
	Phase Phase

	// PagesCrawled counts visited pages, including failed fetches.
	PagesCrawled int

	// FormsFound counts forms discovered so far.
	FormsFound int

	// EndpointsFound counts API endpoints discovered so far.
	EndpointsFound int

	// FindingsBySeverity counts findings per severity name.
	FindingsBySeverity map[string]int

	// ModulesTotal is the number of modules scheduled to run.
	ModulesTotal int

	// ModulesDone counts finished modules, whatever their status.
	ModulesDone int

	// CurrentURL is the most recently visited URL.
	CurrentURL string

	// CurrentModule is the most recently started module.
	CurrentModule string

	// LastModule is the most recently finished module.
	LastModule string

	// Elapsed is the time since tracking started.
	Elapsed time.Duration
}

// TotalFindings sums findings across severities.
func (s Snapshot) TotalFindings() int {
	total := 0
	for _, n := range s.FindingsBySeverity {
		total += n
	}
	return total
}

// Tracker collects progress updates from the crawler and module runner.
// All methods are safe for concurrent use.
type Tracker struct {
	mu sync.RWMutex

	phase              Phase
	pagesCrawled       int
	formsFound         int
	endpointsFound     int
	findingsBySeverity map[string]int
	modulesTotal       int
	modulesDone        int
	currentURL         string
	currentModule      string
	lastModule         string
	startedAt          time.Time

	subscribers []chan Snapshot
}

// NewTracker creates a tracker. The elapsed clock starts immediately.
func NewTracker() *Tracker {
	return &Tracker{
		phase:              PhaseCrawling,
		findingsBySeverity: make(map[string]int),
		startedAt:          time.Now(),
	}
}

// PageVisited records one visited page and its discoveries.
func (t *Tracker) PageVisited(page *model.CrawledPage) {
	t.mu.Lock()
	t.pagesCrawled++
	t.formsFound += len(page.Forms)
	t.currentURL = page.URL
	t.mu.Unlock()
	t.publish()
}

// EndpointsDiscovered records the endpoint count once the crawl finishes.
func (t *Tracker) EndpointsDiscovered(n int) {
	t.mu.Lock()
	t.endpointsFound = n
	t.mu.Unlock()
	t.publish()
}

// ModulesScheduled records how many modules will run and moves the
// tracker into the module phase.
func (t *Tracker) ModulesScheduled(n int) {
	t.mu.Lock()
	t.modulesTotal = n
	t.phase = PhaseModules
	t.mu.Unlock()
	t.publish()
}

// ModuleStarted records which module is currently executing.
// With concurrent modules this is the most recently started one.
func (t *Tracker) ModuleStarted(name string) {
	t.mu.Lock()
	t.currentModule = name
	t.mu.Unlock()
	t.publish()
}

// ModuleFinished records one finished module and its findings.
func (t *Tracker) ModuleFinished(result model.ModuleResult) {
	t.mu.Lock()
	t.modulesDone++
	t.lastModule = result.ModuleName
	for _, f := range result.Findings {
		t.findingsBySeverity[f.Severity.String()]++
	}
	t.mu.Unlock()
	t.publish()
}

// Done moves the tracker into the final phase.
func (t *Tracker) Done() {
	t.mu.Lock()
	t.phase = PhaseDone
	t.mu.Unlock()
	t.publish()
}

// Snapshot returns a consistent copy of the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

// snapshotLocked builds a Snapshot. Callers must hold at least a read lock.
func (t *Tracker) snapshotLocked() Snapshot {
	bySeverity := make(map[string]int, len(t.findingsBySeverity))
	for k, v := range t.findingsBySeverity {
		bySeverity[k] = v
	}
	return Snapshot{
		Phase:              t.phase,
		PagesCrawled:       t.pagesCrawled,
		FormsFound:         t.formsFound,
		EndpointsFound:     t.endpointsFound,
		FindingsBySeverity: bySeverity,
		ModulesTotal:       t.modulesTotal,
		ModulesDone:        t.modulesDone,
		CurrentURL:         t.currentURL,
		CurrentModule:      t.currentModule,
		LastModule:         t.lastModule,
		Elapsed:            time.Since(t.startedAt),
	}
}

// Subscribe returns a channel receiving a snapshot after every update.
// Sends never block: when the subscriber lags, intermediate snapshots
// are dropped and only the freshest state matters.
func (t *Tracker) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	t.mu.Lock()
	t.subscribers = append(t.subscribers, ch)
	t.mu.Unlock()
	return ch
}

// publish sends the current snapshot to all subscribers without blocking.
func (t *Tracker) publish() {
	t.mu.RLock()
	snap := t.snapshotLocked()
	subs := t.subscribers
	t.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot and replace it with the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
