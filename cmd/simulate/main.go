package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"code-research-be/pkg/research"

	"github.com/fatih/color"
)

// cannedSearch serves a tiny fixed corpus so the research loop can be
// exercised end to end without a search backend.
type cannedSearch struct {
	corpus map[string][]research.SearchHit
}

func (s *cannedSearch) Search(ctx context.Context, query, repository string, opts research.SearchOptions) ([]research.SearchHit, error) {
	var hits []research.SearchHit
	for _, h := range s.corpus[strings.ToLower(query)] {
		h.Repository = repository
		hits = append(hits, h)
	}
	return hits, nil
}

// cannedCompletion emits scripted findings: the first round surfaces a
// follow-up term, the second ends the loop.
type cannedCompletion struct {
	calls int
}

func (c *cannedCompletion) Synthesize(ctx context.Context, prompt research.PromptContext) (*research.Finding, error) {
	c.calls++
	if c.calls == 1 {
		return &research.Finding{
			Text:      "CampaignBudget is loaded by the budget service; its schema lives in `budget_table`.",
			FollowUps: []string{"budget_table"},
		}, nil
	}
	return &research.Finding{
		Text: "budget_table is defined in the DB project with daily and monthly amount columns.",
	}, nil
}

func (c *cannedCompletion) Stream(ctx context.Context, prompt research.PromptContext) (<-chan research.Chunk, error) {
	out := make(chan research.Chunk)
	go func() {
		defer close(out)
		for _, part := range []string{
			"CampaignBudget is persisted in budget_table ",
			"and loaded through the budget service. ",
			"Daily and monthly amounts are separate columns.",
		} {
			out <- research.Chunk{Content: part}
		}
	}()
	return out, nil
}

func main() {
	color.Cyan("🔬 Deep Research Simulation\n")

	search := &cannedSearch{corpus: map[string][]research.SearchHit{
		"how is campaignbudget stored": {
			{Path: "Services/BudgetService.cs", Content: "class BudgetService { /* loads CampaignBudget */ }"},
		},
		"budget_table": {
			{Path: "Schema/budget_table.sql", Content: "CREATE TABLE budget_table (daily_amount money, monthly_amount money);"},
		},
	}}

	driver := research.NewDriver(
		search,
		&cannedCompletion{},
		research.Config{MaxRounds: 5},
		log.New(os.Stdout, "[SIM] ", log.LstdFlags),
	)

	em := research.NewEmitter(research.DefaultEventBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range em.Events() {
			switch ev.Kind {
			case research.EventProcessing:
				color.Yellow("  %3d processing  %s", ev.Seq, ev.Data.Message)
			case research.EventPrompt:
				color.Blue("  %3d prompt      (%d bytes of context)", ev.Seq, len(ev.Data.Content))
			case research.EventMessage:
				color.White("  %3d message     %s", ev.Seq, ev.Data.Content)
			case research.EventDone:
				if ev.Data.Error != "" {
					color.Red("  %3d done        error: %s", ev.Seq, ev.Data.Error)
				} else {
					color.Green("  %3d done        %s", ev.Seq, ev.Data.Message)
				}
			}
		}
	}()

	answer, err := driver.Run(context.Background(), research.Request{
		Query:        "How is CampaignBudget stored",
		Repositories: []string{"AdsAppsMT", "AdsAppsDB"},
	}, em)
	<-done

	if err != nil {
		color.Red("\nSession failed: %v", err)
		os.Exit(1)
	}

	color.Green("\n✅ Completed in %d rounds with %d hits", answer.Rounds, answer.Hits)
	fmt.Printf("\n%s\n", answer.Text)
}
