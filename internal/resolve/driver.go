package resolve

import (
	"runtime"
	"strings"
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/capability"
	"github.com/oxhq/syngraph/internal/symbol"
)

// Lookup resolves ref (a symbol that opted into the reference capability)
// against root, the document's current AST root. It returns the target
// cell on ResolveFound; the other outcomes carry no target.
type Lookup func(ref symbol.Node, root symbol.Node) (*symbol.Cell, capability.ResolveOutcome, *core.Diagnostic)

// Driver drains the two resolver queues (C7) after a build or incremental
// update. One Driver is owned per document, sharing its document's
// DiagnosticSink so both checks and references land diagnostics in the
// same place the build phase does.
type Driver struct {
	Checks     *Queue
	References *Queue

	sinkMu sync.Mutex
	Sink   *core.DiagnosticSink

	// Parallel opts into draining a snapshot across a worker pool bounded
	// by GOMAXPROCS instead of sequentially, per SPEC_FULL's "opt-in
	// parallel queue draining" supplement. Off by default: sequential
	// draining is simpler to reason about and is what the spec's lock-
	// ordering discussion assumes.
	Parallel bool

	Log *zap.SugaredLogger
}

// NewDriver builds a Driver over the given queues and sink. log may be nil,
// in which case draining proceeds silently.
func NewDriver(checks, references *Queue, sink *core.DiagnosticSink, log *zap.SugaredLogger) *Driver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Driver{Checks: checks, References: references, Sink: sink, Log: log}
}

func (d *Driver) addDiag(diag core.Diagnostic) {
	d.sinkMu.Lock()
	defer d.sinkMu.Unlock()
	d.Sink.Add(diag)
}

// DrainChecks runs every still-live, still-unresolved Checker in the Checks
// queue once. ResolveFound entries are dropped; ResolveNotYet and
// ResolveError entries are requeued for the next drain (§4.7: "a check that
// returns NotYet stays queued; the driver does not spin on it within a
// single drain pass").
func (d *Driver) DrainChecks() int {
	items := d.Checks.snapshot()
	if len(items) == 0 {
		return 0
	}

	resolved := 0
	if d.Parallel {
		resolved = d.drainParallel(items, d.Checks, func(c *symbol.Cell) capability.ResolveOutcome {
			return d.runCheck(c)
		})
	} else {
		var requeue []weak.Pointer[symbol.Cell]
		for _, w := range items {
			c := w.Value()
			if c == nil {
				continue
			}
			if d.runCheck(c) == capability.ResolveFound {
				resolved++
			} else {
				requeue = append(requeue, w)
			}
		}
		d.Checks.requeue(requeue)
	}

	d.Log.Debugw("drained checks", "total", len(items), "resolved", resolved, "parallel", d.Parallel)
	return resolved
}

func (d *Driver) runCheck(c *symbol.Cell) capability.ResolveOutcome {
	owner := c.Owner()
	checker, ok := owner.(capability.Checker)
	if !ok {
		return capability.ResolveFound
	}
	var local core.DiagnosticSink
	outcome := checker.Check(&local)
	for _, diag := range local.All() {
		d.addDiag(diag)
	}
	return outcome
}

// DrainReferences runs lookup once against every still-live, still-
// unresolved Reference in the References queue. ResolveFound sets the
// reference's target and registers it as a referrer on the target, in that
// order, so the driver never holds one cell's lock while acquiring another
// (§5). ResolveNotYet requeues the entry; ResolveError requeues it too but
// also surfaces the diagnostic, matching the spec's "errors are reported but
// remain retryable" stance for reference resolution.
func (d *Driver) DrainReferences(root symbol.Node, lookup Lookup) int {
	items := d.References.snapshot()
	if len(items) == 0 {
		return 0
	}

	resolved := 0
	if d.Parallel {
		resolved = d.drainParallel(items, d.References, func(c *symbol.Cell) capability.ResolveOutcome {
			return d.runReference(c, root, lookup)
		})
	} else {
		var requeue []weak.Pointer[symbol.Cell]
		for _, w := range items {
			c := w.Value()
			if c == nil {
				continue
			}
			if d.runReference(c, root, lookup) == capability.ResolveFound {
				resolved++
			} else {
				requeue = append(requeue, w)
			}
		}
		d.References.requeue(requeue)
	}

	d.Log.Debugw("drained references", "total", len(items), "resolved", resolved, "parallel", d.Parallel)
	return resolved
}

func (d *Driver) runReference(c *symbol.Cell, root symbol.Node, lookup Lookup) capability.ResolveOutcome {
	owner := c.Owner()

	if custom, ok := owner.(capability.CustomReferenceResolver); ok {
		target, outcome, diag := custom.ResolveReference()
		if diag != nil {
			d.addDiag(*diag)
		}
		if outcome == capability.ResolveFound && target != nil {
			c.SetTarget(target.SymbolCell())
			target.SymbolCell().AddReferrer(c)
		}
		return outcome
	}

	target, outcome, diag := lookup(owner, root)
	if diag != nil {
		d.addDiag(*diag)
	}
	if outcome == capability.ResolveFound && target != nil {
		c.SetTarget(target)
		target.AddReferrer(c)
	}
	return outcome
}

// drainParallel fans items out across a worker pool bounded by GOMAXPROCS,
// runs fn for each live cell, and requeues everything fn did not resolve.
// Diagnostics are serialized through addDiag; the queue's own requeue is
// collected locally per-worker and merged once every worker has finished,
// so no two goroutines ever touch the same cell concurrently.
func (d *Driver) drainParallel(items []weak.Pointer[symbol.Cell], q *Queue, fn func(*symbol.Cell) capability.ResolveOutcome) int {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	type result struct {
		resolved int
		requeue  []weak.Pointer[symbol.Cell]
	}

	jobs := make(chan weak.Pointer[symbol.Cell])
	results := make(chan result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var r result
			for w := range jobs {
				c := w.Value()
				if c == nil {
					continue
				}
				if fn(c) == capability.ResolveFound {
					r.resolved++
				} else {
					r.requeue = append(r.requeue, w)
				}
			}
			results <- r
		}()
	}

	go func() {
		for _, w := range items {
			jobs <- w
		}
		close(jobs)
	}()

	wg.Wait()
	close(results)

	resolved := 0
	var requeue []weak.Pointer[symbol.Cell]
	for r := range results {
		resolved += r.resolved
		requeue = append(requeue, r.requeue...)
	}
	q.requeue(requeue)
	return resolved
}

// DefaultLookup returns the identifier-lookup algorithm §4.7 describes as
// the framework's default reference resolution: walk upward through
// enclosing Scoper ancestors, scan each declared scope range's raw source
// text for substring occurrences of the reference's spelling, and descend
// via OffsetFinder to the symbol sitting at each occurrence. The first
// occurrence whose symbol text matches the spelling and whose range differs
// from the reference's own is accepted as the target; reaching the document
// root without a match yields ResolveNotYet (the declaration may simply not
// exist yet, in an incomplete edit).
func DefaultLookup(doc *core.Document) Lookup {
	return func(refNode symbol.Node, root symbol.Node) (*symbol.Cell, capability.ResolveOutcome, *core.Diagnostic) {
		ref, ok := refNode.(capability.Reference)
		if !ok {
			return nil, capability.ResolveError, &core.Diagnostic{
				Range:    refNode.SymbolCell().Range(),
				Severity: core.SeverityError,
				Message:  "queued reference symbol does not implement capability.Reference",
			}
		}
		spelling := ref.Spelling()
		if spelling == "" {
			return nil, capability.ResolveNotYet, nil
		}

		ownRange := refNode.SymbolCell().Range()

		cur, hasParent := refNode.SymbolCell().ParentNode()
		for hasParent {
			scoper, isScoper := cur.(capability.Scoper)
			if isScoper {
				if target, found := scanScope(doc, scoper, spelling, ownRange); found {
					return target.SymbolCell(), capability.ResolveFound, nil
				}
			}
			cur, hasParent = cur.SymbolCell().ParentNode()
		}

		// Root itself may be a scope (e.g. module-level declarations); the
		// loop above only visits parents, so check it explicitly.
		if scoper, isScoper := root.(capability.Scoper); isScoper {
			if target, found := scanScope(doc, scoper, spelling, ownRange); found {
				return target.SymbolCell(), capability.ResolveFound, nil
			}
		}

		return nil, capability.ResolveNotYet, nil
	}
}

// scanScope scans every range scoper declares for occurrences of spelling
// and returns the first symbol found at such an occurrence whose own range
// differs from exclude (the reference's own range, so a reference never
// resolves to itself).
func scanScope(doc *core.Document, scoper capability.Scoper, spelling string, exclude core.Range) (symbol.Node, bool) {
	finder, ok := scoper.(capability.OffsetFinder)
	if !ok {
		return nil, false
	}

	for _, scopeRange := range scoper.ScopeRanges() {
		text, ok := doc.Slice(scopeRange)
		if !ok {
			continue
		}
		searchFrom := 0
		for {
			idx := strings.Index(text[searchFrom:], spelling)
			if idx < 0 {
				break
			}
			occursAt := scopeRange.Start + uint32(searchFrom+idx)
			searchFrom += idx + len(spelling)

			candidate, ok := finder.FindAtOffset(occursAt)
			if !ok {
				continue
			}
			cRange := candidate.SymbolCell().Range()
			if cRange == exclude {
				continue
			}
			candidateText, ok := doc.Slice(cRange)
			if !ok || candidateText != spelling {
				continue
			}
			return candidate, true
		}
	}
	return nil, false
}
