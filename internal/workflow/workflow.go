// Package workflow drives one authoring session: duplicate check, human decision, generation,
// human approval and saving. Every transition is persisted so a waiting session can be resumed.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"prdapi/internal/model"
	"prdapi/internal/pipeline"
	"prdapi/internal/session"
)

var (
	ErrDraftMissing     = errors.New("no draft found for this session")
	ErrRefinementLimit  = errors.New("refinement limit reached")
	ErrHumanTimeout     = errors.New("timed out waiting for a decision")
	ErrSessionFinished  = errors.New("session already finished")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrEmptyDescription = errors.New("product description is empty")
)

const productNameMaxRunes = 60

var h1 = regexp.MustCompile(`^#\s+(.+?)(?:\s+#+)?\s*$`)

// DocumentClient is the document service as seen by the workflow.
type DocumentClient interface {
	Search(ctx context.Context, query string) (*model.SearchResponse, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Store(ctx context.Context, in model.StoreInput) (*model.StoreResult, error)
}

// Generator produces a draft from a product description.
type Generator interface {
	Run(ctx context.Context, description string, progress pipeline.ProgressFunc) (pipeline.Result, error)
}

// Level grades a user-facing notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

// Prompter is the human side of the session. Reads must return when ctx is done.
type Prompter interface {
	Notify(level Level, msg string)
	Progress(stage string)
	ShowMatches(matches []model.SearchResult)
	ShowDocument(doc *model.Document)
	ShowDraft(draft string)
	ShowResult(res *model.StoreResult)
	// Choose returns the index of the picked option.
	Choose(ctx context.Context, question string, options []string) (int, error)
	Ask(ctx context.Context, question string) (string, error)
}

// Options tune a Workflow.
type Options struct {
	Author         string
	Version        string
	MaxRefinements int
	HumanTimeout   time.Duration
	SessionTTL     time.Duration
}

// Duplicate decision options, in display order.
const (
	choiceView = iota
	choiceProceed
	choiceRefine
)

var duplicateOptions = []string{
	"View one of the existing PRDs",
	"Create a new PRD anyway",
	"Refine my idea and search again",
}

var approvalOptions = []string{
	"Save this PRD",
	"Discard it",
}

// Workflow runs sessions.
type Workflow struct {
	docs  DocumentClient
	gen   Generator
	store session.Store
	ui    Prompter
	opts  Options
	log   zerolog.Logger
}

func New(docs DocumentClient, gen Generator, store session.Store, ui Prompter, opts Options, log zerolog.Logger) *Workflow {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Workflow{
		docs:  docs,
		gen:   gen,
		store: store,
		ui:    ui,
		opts:  opts,
		log:   log.With().Str("component", "workflow").Logger(),
	}
}

// Start opens a session for description and runs it until it finishes or waits too long.
func (w *Workflow) Start(ctx context.Context, description string) (*session.Session, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	s := session.New(description, w.opts.SessionTTL)
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	w.log.Info().Str("session_id", s.ID).Msg("session started")
	return w.run(ctx, s)
}

// Resume continues a persisted session from the state it was left in.
func (w *Workflow) Resume(ctx context.Context, id string) (*session.Session, error) {
	s, err := w.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State == session.StateTerminal {
		return s, fmt.Errorf("%w: %s ended as %s", ErrSessionFinished, s.ID, s.Outcome)
	}
	if !s.Awaiting() {
		// Interrupted between decisions, e.g. the process died while generating.
		w.ui.Notify(LevelWarn, fmt.Sprintf("Session %s was interrupted while %s; continuing from there.", s.ID, strings.ReplaceAll(string(s.State), "_", " ")))
	}
	w.log.Info().Str("session_id", s.ID).Str("state", string(s.State)).Bool("awaiting", s.Awaiting()).Msg("session resumed")
	return w.run(ctx, s)
}

// Discard drops a persisted session, typically one left waiting after a timeout.
func (w *Workflow) Discard(ctx context.Context, id string) error {
	s, err := w.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := w.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session %s: %w", s.ID, err)
	}
	w.log.Info().Str("session_id", s.ID).Str("state", string(s.State)).Msg("session discarded")
	w.ui.Notify(LevelInfo, fmt.Sprintf("Session %s discarded.", s.ID))
	return nil
}

func (w *Workflow) run(ctx context.Context, s *session.Session) (*session.Session, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		var err error
		switch s.State {
		case session.StateIdle:
			s.State = session.StateDuplicateCheck
		case session.StateDuplicateCheck:
			err = w.duplicateCheck(ctx, s)
		case session.StateAwaitingDuplicateDecision:
			err = w.duplicateDecision(ctx, s)
		case session.StateGenerating:
			err = w.generate(ctx, s)
		case session.StateAwaitingApproval:
			err = w.approval(ctx, s)
		case session.StateSaving:
			err = w.saveDocument(ctx, s)
		case session.StateTerminal:
			return s, nil
		default:
			err = w.abort(ctx, s, fmt.Errorf("unknown session state %q", s.State))
		}
		if err != nil {
			return s, err
		}
		if err := w.save(ctx, s); err != nil {
			return s, err
		}
	}
}

func (w *Workflow) duplicateCheck(ctx context.Context, s *session.Session) error {
	w.ui.Notify(LevelInfo, "Checking for similar PRDs...")
	res, err := w.docs.Search(ctx, s.Description)
	if err != nil {
		return w.abort(ctx, s, fmt.Errorf("duplicate check failed: %w", err))
	}
	if len(res.Results) == 0 {
		w.ui.Notify(LevelInfo, "No similar PRDs found.")
		s.Matches = nil
		s.State = session.StateGenerating
		return nil
	}
	s.Matches = res.Results
	s.State = session.StateAwaitingDuplicateDecision
	return nil
}

func (w *Workflow) duplicateDecision(ctx context.Context, s *session.Session) error {
	w.ui.Notify(LevelWarn, fmt.Sprintf("Found %d similar PRD(s):", len(s.Matches)))
	w.ui.ShowMatches(s.Matches)

	choice, err := w.choose(ctx, s, "What would you like to do?", duplicateOptions)
	if err != nil {
		return err
	}

	switch choice {
	case choiceView:
		return w.view(ctx, s)
	case choiceProceed:
		s.State = session.StateGenerating
		return nil
	case choiceRefine:
		if s.Refinements >= w.opts.MaxRefinements {
			return w.abort(ctx, s, fmt.Errorf("%w (%d)", ErrRefinementLimit, w.opts.MaxRefinements))
		}
		desc, err := w.ask(ctx, s, "Describe your refined product idea:")
		if err != nil {
			return err
		}
		if desc = strings.TrimSpace(desc); desc == "" {
			w.ui.Notify(LevelWarn, "Empty description, keeping the previous one.")
			return nil
		}
		s.Refinements++
		s.Description = desc
		s.Matches = nil
		s.State = session.StateDuplicateCheck
		return nil
	default:
		return w.abort(ctx, s, ErrInvalidSelection)
	}
}

func (w *Workflow) view(ctx context.Context, s *session.Session) error {
	idx := 0
	if len(s.Matches) > 1 {
		labels := make([]string, len(s.Matches))
		for i, m := range s.Matches {
			labels[i] = fmt.Sprintf("%s (%s)", m.ProductName, m.ID)
		}
		var err error
		if idx, err = w.choose(ctx, s, "Which PRD would you like to view?", labels); err != nil {
			return err
		}
	}
	if idx < 0 || idx >= len(s.Matches) {
		return w.abort(ctx, s, ErrInvalidSelection)
	}

	doc, err := w.docs.Get(ctx, s.Matches[idx].ID)
	if err != nil {
		return w.abort(ctx, s, fmt.Errorf("could not load %s: %w", s.Matches[idx].ID, err))
	}
	w.ui.ShowDocument(doc)
	s.State = session.StateTerminal
	s.Outcome = session.OutcomeViewed
	return nil
}

func (w *Workflow) generate(ctx context.Context, s *session.Session) error {
	w.ui.Notify(LevelInfo, "Generating a new PRD...")
	res, err := w.gen.Run(ctx, s.Description, w.ui.Progress)
	if err != nil {
		return w.abort(ctx, s, fmt.Errorf("generation failed: %w", err))
	}
	s.Draft = res.Draft
	s.ProductName = ProductName(res.Draft, s.Description)
	s.State = session.StateAwaitingApproval
	return nil
}

func (w *Workflow) approval(ctx context.Context, s *session.Session) error {
	w.ui.ShowDraft(s.Draft)
	choice, err := w.choose(ctx, s, "Would you like me to save this PRD to storage?", approvalOptions)
	if err != nil {
		return err
	}
	if choice != 0 {
		w.ui.Notify(LevelInfo, "Draft discarded, nothing was saved.")
		s.Draft = ""
		s.State = session.StateTerminal
		s.Outcome = session.OutcomeRejected
		return nil
	}
	s.State = session.StateSaving
	return nil
}

func (w *Workflow) saveDocument(ctx context.Context, s *session.Session) error {
	if strings.TrimSpace(s.Draft) == "" {
		return w.abort(ctx, s, ErrDraftMissing)
	}
	name := s.ProductName
	if name == "" {
		name = ProductName(s.Draft, s.Description)
	}

	res, err := w.docs.Store(ctx, model.StoreInput{
		ProductName: name,
		Content:     s.Draft,
		Author:      w.opts.Author,
		Version:     w.opts.Version,
	})
	if err != nil {
		// The draft stays in the session so saving can be attempted again on resume.
		s.State = session.StateAwaitingApproval
		s.Error = err.Error()
		if sErr := w.save(ctx, s); sErr != nil {
			w.log.Error().Err(sErr).Str("session_id", s.ID).Msg("failed to persist session")
		}
		w.ui.Notify(LevelError, fmt.Sprintf("Saving failed: %v. The session is closed; the draft was kept, run pmagent -resume %s to approve it again.", err, s.ID))
		return fmt.Errorf("store prd: %w", err)
	}

	s.Result = res
	s.Draft = ""
	s.Error = ""
	s.State = session.StateTerminal
	s.Outcome = session.OutcomeSaved
	w.ui.ShowResult(res)
	return nil
}

// choose waits for a decision, bounded by the human timeout.
func (w *Workflow) choose(ctx context.Context, s *session.Session, question string, options []string) (int, error) {
	var choice int
	err := w.wait(ctx, s, func(hctx context.Context) error {
		var err error
		choice, err = w.ui.Choose(hctx, question, options)
		return err
	})
	return choice, err
}

func (w *Workflow) ask(ctx context.Context, s *session.Session, question string) (string, error) {
	var answer string
	err := w.wait(ctx, s, func(hctx context.Context) error {
		var err error
		answer, err = w.ui.Ask(hctx, question)
		return err
	})
	return answer, err
}

// wait runs a human read. On timeout the session is left persisted in its awaiting state.
func (w *Workflow) wait(ctx context.Context, s *session.Session, read func(context.Context) error) error {
	if err := w.save(ctx, s); err != nil {
		return err
	}
	hctx := ctx
	if w.opts.HumanTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, w.opts.HumanTimeout)
		defer cancel()
	}

	err := read(hctx)
	if err == nil {
		return nil
	}
	if errors.Is(hctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		w.log.Info().Str("session_id", s.ID).Str("state", string(s.State)).Msg("human decision timed out")
		w.ui.Notify(LevelWarn, fmt.Sprintf("No answer received. Resume this session later with -resume %s", s.ID))
		return ErrHumanTimeout
	}
	return err
}

func (w *Workflow) abort(ctx context.Context, s *session.Session, cause error) error {
	s.State = session.StateTerminal
	s.Outcome = session.OutcomeAborted
	s.Error = cause.Error()
	if err := w.save(ctx, s); err != nil {
		w.log.Error().Err(err).Str("session_id", s.ID).Msg("failed to persist aborted session")
	}
	w.log.Warn().Err(cause).Str("session_id", s.ID).Msg("session aborted")
	w.ui.Notify(LevelError, cause.Error())
	return cause
}

func (w *Workflow) save(ctx context.Context, s *session.Session) error {
	if err := w.store.Save(context.WithoutCancel(ctx), s); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// ProductName is the text of the draft's first level-one heading, or the description clipped
// to 60 runes when there is none.
func ProductName(draft, description string) string {
	for _, line := range strings.Split(draft, "\n") {
		if m := h1.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	name := strings.Join(strings.Fields(description), " ")
	if utf8.RuneCountInString(name) > productNameMaxRunes {
		name = strings.TrimSpace(string([]rune(name)[:productNameMaxRunes]))
	}
	return name
}
