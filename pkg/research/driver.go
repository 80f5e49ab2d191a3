package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Config encapsulates session parameters.
type Config struct {
	MaxRounds      int
	MaxKeywords    int
	SessionTimeout time.Duration // total wall clock; 0 disables
}

// DefaultConfig returns the default research configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:      5,
		MaxKeywords:    DefaultMaxKeywords,
		SessionTimeout: 5 * time.Minute,
	}
}

// Driver owns one research session at a time: the round loop, the round
// budget, the termination policy and cancellation. It composes the
// aggregator, the keyword expander and the progress emitter, and calls
// the two external gateways. Session state is exclusive to the Run call;
// a Driver value is safe to reuse sequentially but not concurrently.
type Driver struct {
	search   SearchGateway
	complete CompletionGateway
	expander *Expander
	cfg      Config
	logger   *log.Logger
}

func NewDriver(search SearchGateway, complete CompletionGateway, cfg Config, logger *log.Logger) *Driver {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultConfig().MaxRounds
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{
		search:   search,
		complete: complete,
		expander: NewExpander(cfg.MaxKeywords),
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the session loop and streams every state transition
// through em. It always terminates the stream with a single done event:
// a plain one on success and cancellation, one carrying the error on
// failure. The returned Answer is nil unless the session completed.
func (d *Driver) Run(ctx context.Context, req Request, em *Emitter) (*Answer, error) {
	if d.cfg.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SessionTimeout)
		defer cancel()
	}

	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = d.cfg.MaxRounds
	}

	agg := NewAggregator()
	issued := map[string]struct{}{NormalizeQuery(req.Query): {}}
	var findings []Finding

	// Seeded: round 0 carries the user's original query.
	queries := []string{req.Query}

	d.logger.Printf("[DRIVER] Session start: query=%q repos=%v maxRounds=%d", req.Query, req.Repositories, maxRounds)
	if err := em.Emit(ctx, EventProcessing, EventData{Message: "Starting deep research process..."}); err != nil {
		return d.cancelled(em)
	}

	rounds := 0
	for round := 0; round < maxRounds; round++ {
		if ctx.Err() != nil {
			return d.cancelled(em)
		}

		if err := em.Emit(ctx, EventProcessing, EventData{
			Message: fmt.Sprintf("Deep research round %d/%d: searching for %s", round+1, maxRounds, strings.Join(queries, ", ")),
			Round:   &RoundMeta{Index: round, MaxRounds: maxRounds},
		}); err != nil {
			return d.cancelled(em)
		}

		// Searching: fan out one call per (query, repository) pair,
		// fan in before proceeding.
		results, failures, err := d.fanOut(ctx, round, queries, req.Repositories)
		if err != nil {
			// Cancelled mid-flight; results are discarded unmerged.
			return d.cancelled(em)
		}
		for _, sf := range failures {
			d.logger.Printf("[DRIVER] Partial search failure (round %d): %v", round, sf)
			if err := em.Emit(ctx, EventProcessing, EventData{
				Message: fmt.Sprintf("Search failed for %q in %s, continuing with remaining results", sf.Query, sf.Repository),
				Round:   &RoundMeta{Index: round, MaxRounds: maxRounds},
			}); err != nil {
				return d.cancelled(em)
			}
		}

		newHits := 0
		for _, hits := range results {
			newHits += agg.Merge(hits)
		}
		rounds = round + 1
		d.logger.Printf("[DRIVER] Round %d merged: %d new, %d total", round, newHits, agg.Len())

		if err := em.Emit(ctx, EventPrompt, EventData{
			Message: "Generating response...",
			Content: FormatContext(agg.Hits()),
		}); err != nil {
			return d.cancelled(em)
		}

		// Synthesizing.
		if ctx.Err() != nil {
			return d.cancelled(em)
		}
		finding, err := d.complete.Synthesize(ctx, PromptContext{
			Question:     req.Query,
			Context:      FormatContext(agg.Hits()),
			Findings:     findings,
			CustomPrompt: req.CustomPrompt,
			Temperature:  req.Temperature,
		})
		if err != nil {
			if ctx.Err() != nil {
				return d.cancelled(em)
			}
			return d.failed(em, &CompletionError{Op: "synthesize", Err: err})
		}
		finding.Round = round
		findings = append(findings, *finding)

		// Expanding.
		if ctx.Err() != nil {
			return d.cancelled(em)
		}
		keywords := d.expander.Expand(finding, issued)
		for _, k := range keywords {
			issued[NormalizeQuery(k)] = struct{}{}
		}
		if err := em.Emit(ctx, EventProcessing, EventData{
			Message: fmt.Sprintf("Round %d findings: %d new results, %d follow-up keywords", round+1, newHits, len(keywords)),
			Round:   &RoundMeta{Index: round, MaxRounds: maxRounds, NewHits: newHits, NewKeywords: len(keywords)},
		}); err != nil {
			return d.cancelled(em)
		}

		// Termination: with no new keywords there is nothing left to
		// issue, so the loop finalizes. New keywords keep the loop
		// alive even when this round added zero new hits.
		if len(keywords) == 0 {
			d.logger.Printf("[DRIVER] No new keywords after round %d, finalizing", round)
			break
		}
		queries = keywords
	}

	// Finalizing: one last completion over everything accumulated.
	if ctx.Err() != nil {
		return d.cancelled(em)
	}
	if err := em.Emit(ctx, EventProcessing, EventData{Message: "Research complete. Generating final answer..."}); err != nil {
		return d.cancelled(em)
	}

	chunks, err := d.complete.Stream(ctx, PromptContext{
		Question:     req.Query,
		Context:      FormatContext(agg.Hits()),
		Findings:     findings,
		CustomPrompt: req.CustomPrompt,
		Temperature:  req.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return d.cancelled(em)
		}
		return d.failed(em, &CompletionError{Op: "stream", Err: err})
	}

	var answer strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			if ctx.Err() != nil {
				return d.cancelled(em)
			}
			return d.failed(em, &CompletionError{Op: "stream", Err: chunk.Err})
		}
		answer.WriteString(chunk.Content)
		if err := em.Emit(ctx, EventMessage, EventData{Content: chunk.Content}); err != nil {
			return d.cancelled(em)
		}
	}

	d.logger.Printf("[DRIVER] Session done: %d rounds, %d hits, %d findings", rounds, agg.Len(), len(findings))
	em.Close(EventData{Message: "Research complete"})
	return &Answer{Text: answer.String(), Rounds: rounds, Hits: agg.Len()}, nil
}

// fanOut runs all (query, repository) searches of a round concurrently
// and joins them. Result slices come back indexed by task issuance
// order (query order outer, repository order inner) so the caller's
// merge is deterministic. Per-item failures are collected, not fatal.
// On cancellation fanOut returns immediately without awaiting in-flight
// calls; their results are discarded.
func (d *Driver) fanOut(ctx context.Context, round int, queries, repositories []string) ([][]SearchHit, []*SearchError, error) {
	type task struct {
		query, repo string
	}
	var tasks []task
	for _, q := range queries {
		for _, r := range repositories {
			tasks = append(tasks, task{query: q, repo: r})
		}
	}

	results := make([][]SearchHit, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			hits, err := d.search.Search(ctx, t.query, t.repo, SearchOptions{})
			if err != nil {
				errs[i] = err
				return
			}
			for j := range hits {
				hits[j].Round = round
				hits[j].Query = t.query
			}
			results[i] = hits
		}(i, t)
	}

	joined := make(chan struct{})
	go func() {
		wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	var failures []*SearchError
	for i, err := range errs {
		if err == nil {
			continue
		}
		se, ok := err.(*SearchError)
		if !ok {
			se = &SearchError{Repository: tasks[i].repo, Query: tasks[i].query, Err: err}
		}
		failures = append(failures, se)
	}
	return results, failures, nil
}

func (d *Driver) cancelled(em *Emitter) (*Answer, error) {
	d.logger.Printf("[DRIVER] Session cancelled")
	em.Close(EventData{Message: "Research cancelled"})
	return nil, context.Canceled
}

func (d *Driver) failed(em *Emitter, err error) (*Answer, error) {
	d.logger.Printf("[DRIVER] Session failed: %v", err)
	em.Close(EventData{Error: err.Error()})
	return nil, err
}
