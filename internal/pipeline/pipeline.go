// Package pipeline runs the three drafting stages: market research, persona and journey
// synthesis, and the PRD draft. Each stage sees the product idea and the previous stage's output.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"prdapi/internal/config"
	"prdapi/internal/llm"
)

// Stage names.
const (
	StageResearch = "market_research"
	StageJourneys = "user_journeys"
	StageDraft    = "prd_draft"
)

const (
	researchInstruction = `Your task is to understand the problem space based on the product idea provided.
Define the core problem, identify the target audience, and analyze potential competitors.
Use web search results to gather external context and validate your findings.`

	journeysInstruction = `Based on the market research and problem definition, synthesize the information to create
detailed customer user journeys and high-level user personas.
Focus on user needs, motivations, and pain points uncovered during market research.`

	draftInstruction = `Your task is to compile all the preceding context (market research, user journeys, and personas)
into a concise Product Requirements Document (PRD) in markdown.
The first line must be a level-one heading with the product name: "# <Product Name>".
The PRD must include these sections:
## Problem Statement
A clear definition of the problem being solved.
## User Stories
A list of user stories, each with acceptance criteria.
## Key Functional Requirements
Essential features and functionalities.
Output only the PRD markdown.`
)

// Stage is one generation step.
type Stage struct {
	Name        string
	Model       string
	System      string
	WebSearch   bool
	Temperature float64
	// Input labels the previous stage output inside this stage's prompt.
	Input string
}

// Result holds every stage output. Draft is the PRD markdown.
type Result struct {
	Research string
	Journeys string
	Draft    string
}

// ProgressFunc is told when a stage starts.
type ProgressFunc func(stage string)

// Pipeline runs its stages strictly in order.
type Pipeline struct {
	llm    llm.Client
	stages []Stage
	log    zerolog.Logger
}

// DefaultStages returns the research, journeys and draft stages for the configured models.
func DefaultStages(cfg config.LLMConfig) []Stage {
	return []Stage{
		{Name: StageResearch, Model: cfg.ResearchModel, System: researchInstruction, WebSearch: true, Temperature: 0.3},
		{Name: StageJourneys, Model: cfg.SynthesisModel, System: journeysInstruction, Temperature: 0.5, Input: "Market research"},
		{Name: StageDraft, Model: cfg.DraftModel, System: draftInstruction, Temperature: 0.2, Input: "User journeys and personas"},
	}
}

func New(client llm.Client, stages []Stage, log zerolog.Logger) *Pipeline {
	return &Pipeline{llm: client, stages: stages, log: log.With().Str("component", "pipeline").Logger()}
}

// Run executes every stage. The first failing stage aborts the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, description string, progress ProgressFunc) (Result, error) {
	var (
		res  Result
		prev string
	)
	for _, st := range p.stages {
		if progress != nil {
			progress(st.Name)
		}
		start := time.Now()
		out, err := p.llm.Generate(ctx, llm.Request{
			Model:       st.Model,
			System:      st.System,
			Prompt:      buildPrompt(description, st.Input, prev),
			WebSearch:   st.WebSearch,
			Temperature: st.Temperature,
		})
		if err != nil {
			return res, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		p.log.Debug().Str("stage", st.Name).Dur("took", time.Since(start)).Int("chars", len(out)).Msg("stage finished")

		prev = strings.TrimSpace(out)
		switch st.Name {
		case StageResearch:
			res.Research = prev
		case StageJourneys:
			res.Journeys = prev
		case StageDraft:
			res.Draft = prev
		}
	}
	if res.Draft == "" {
		res.Draft = prev
	}
	return res, nil
}

func buildPrompt(description, label, prev string) string {
	var b strings.Builder
	b.WriteString("Product idea:\n")
	b.WriteString(strings.TrimSpace(description))
	if label != "" {
		b.WriteString("\n\n")
		b.WriteString(label)
		b.WriteString(":\n")
		b.WriteString(prev)
	}
	return b.String()
}
