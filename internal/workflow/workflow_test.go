package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prdapi/internal/model"
	"prdapi/internal/pipeline"
	"prdapi/internal/service/mocks"
	"prdapi/internal/session"
)

type fakeGenerator struct {
	draft string
	err   error
	calls []string
}

func (g *fakeGenerator) Run(_ context.Context, description string, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	g.calls = append(g.calls, description)
	if progress != nil {
		progress(pipeline.StageDraft)
	}
	if g.err != nil {
		return pipeline.Result{}, g.err
	}
	return pipeline.Result{Draft: g.draft}, nil
}

// scriptedPrompter answers from queues. An exhausted queue blocks until ctx is done.
type scriptedPrompter struct {
	choices []int
	answers []string

	notices   []string
	stages    []string
	matches   [][]model.SearchResult
	shownDoc  *model.Document
	drafts    []string
	result    *model.StoreResult
	questions []string
}

func (p *scriptedPrompter) Notify(_ Level, msg string)         { p.notices = append(p.notices, msg) }
func (p *scriptedPrompter) Progress(stage string)              { p.stages = append(p.stages, stage) }
func (p *scriptedPrompter) ShowMatches(m []model.SearchResult) { p.matches = append(p.matches, m) }
func (p *scriptedPrompter) ShowDocument(doc *model.Document)   { p.shownDoc = doc }
func (p *scriptedPrompter) ShowDraft(draft string)             { p.drafts = append(p.drafts, draft) }
func (p *scriptedPrompter) ShowResult(res *model.StoreResult)  { p.result = res }

func (p *scriptedPrompter) Choose(ctx context.Context, question string, _ []string) (int, error) {
	p.questions = append(p.questions, question)
	if len(p.choices) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	c := p.choices[0]
	p.choices = p.choices[1:]
	return c, nil
}

func (p *scriptedPrompter) Ask(ctx context.Context, question string) (string, error) {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

const draft = "# Smart Pantry\n\n## Problem Statement\nFood waste.\n"

func matches(ids ...string) *model.SearchResponse {
	res := &model.SearchResponse{Results: []model.SearchResult{}}
	for _, id := range ids {
		res.Results = append(res.Results, model.SearchResult{ID: id, ProductName: "Existing " + id, Score: 1})
	}
	res.Count = len(res.Results)
	return res
}

type fixture struct {
	docs  *mocks.MockDocumentService
	gen   *fakeGenerator
	store *session.MemoryStore
	ui    *scriptedPrompter
	wf    *Workflow
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		docs:  new(mocks.MockDocumentService),
		gen:   &fakeGenerator{draft: draft},
		store: session.NewMemoryStore(),
		ui:    &scriptedPrompter{},
	}
	if opts.MaxRefinements == 0 {
		opts.MaxRefinements = 5
	}
	if opts.HumanTimeout == 0 {
		opts.HumanTimeout = time.Second
	}
	f.wf = New(f.docs, f.gen, f.store, f.ui, opts, zerolog.Nop())
	return f
}

func TestWorkflow_NoDuplicatesApproveAndSave(t *testing.T) {
	f := newFixture(Options{Author: "PM Agent", Version: "1.0"})
	f.ui.choices = []int{0}

	stored := &model.StoreResult{ID: "smart-pantry_1", ProductName: "Smart Pantry"}
	f.docs.On("Search", mock.Anything, "smart pantry app").Return(matches(), nil)
	f.docs.On("Store", mock.Anything, model.StoreInput{
		ProductName: "Smart Pantry",
		Content:     draft,
		Author:      "PM Agent",
		Version:     "1.0",
	}).Return(stored, nil)

	s, err := f.wf.Start(context.Background(), "  smart pantry app ")
	require.NoError(t, err)

	assert.Equal(t, session.StateTerminal, s.State)
	assert.Equal(t, session.OutcomeSaved, s.Outcome)
	assert.Equal(t, stored, s.Result)
	assert.Empty(t, s.Draft)
	assert.Equal(t, stored, f.ui.result)
	assert.Equal(t, []string{draft}, f.ui.drafts)
	assert.Equal(t, []string{pipeline.StageDraft}, f.ui.stages)
	assert.Equal(t, []string{"smart pantry app"}, f.gen.calls)

	persisted, err := f.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSaved, persisted.Outcome)
	f.docs.AssertExpectations(t)
}

func TestWorkflow_RejectDraft(t *testing.T) {
	f := newFixture(Options{})
	f.ui.choices = []int{1}
	f.docs.On("Search", mock.Anything, mock.Anything).Return(matches(), nil)

	s, err := f.wf.Start(context.Background(), "idea")
	require.NoError(t, err)

	assert.Equal(t, session.OutcomeRejected, s.Outcome)
	assert.Empty(t, s.Draft)
	f.docs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestWorkflow_ViewExisting(t *testing.T) {
	t.Run("single match is opened directly", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{choiceView}
		doc := &model.Document{ID: "a_1", Content: "# A"}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1"), nil)
		f.docs.On("Get", mock.Anything, "a_1").Return(doc, nil)

		s, err := f.wf.Start(context.Background(), "idea")
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeViewed, s.Outcome)
		assert.Equal(t, doc, f.ui.shownDoc)
		assert.Len(t, f.ui.matches, 1)
		assert.Empty(t, f.gen.calls)
	})

	t.Run("picks among several", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{choiceView, 1}
		doc := &model.Document{ID: "b_2"}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1", "b_2"), nil)
		f.docs.On("Get", mock.Anything, "b_2").Return(doc, nil)

		s, err := f.wf.Start(context.Background(), "idea")
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeViewed, s.Outcome)
		assert.Equal(t, doc, f.ui.shownDoc)
	})

	t.Run("out of range selection aborts", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{choiceView, 7}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1", "b_2"), nil)

		s, err := f.wf.Start(context.Background(), "idea")
		assert.ErrorIs(t, err, ErrInvalidSelection)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
	})

	t.Run("get failure aborts", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{choiceView}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1"), nil)
		f.docs.On("Get", mock.Anything, "a_1").Return(nil, errors.New("gone"))

		s, err := f.wf.Start(context.Background(), "idea")
		assert.Error(t, err)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
		assert.Contains(t, s.Error, "gone")
	})
}

func TestWorkflow_ProceedDespiteDuplicates(t *testing.T) {
	f := newFixture(Options{})
	f.ui.choices = []int{choiceProceed, 0}
	f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1"), nil)
	f.docs.On("Store", mock.Anything, mock.Anything).Return(&model.StoreResult{ID: "x"}, nil)

	s, err := f.wf.Start(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSaved, s.Outcome)
	assert.Len(t, f.gen.calls, 1)
}

func TestWorkflow_Refine(t *testing.T) {
	t.Run("new description is searched again", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{choiceRefine, 1}
		f.ui.answers = []string{"better idea"}
		f.docs.On("Search", mock.Anything, "idea").Return(matches("a_1"), nil).Once()
		f.docs.On("Search", mock.Anything, "better idea").Return(matches(), nil).Once()

		s, err := f.wf.Start(context.Background(), "idea")
		require.NoError(t, err)
		assert.Equal(t, 1, s.Refinements)
		assert.Equal(t, "better idea", s.Description)
		assert.Equal(t, []string{"better idea"}, f.gen.calls)
		f.docs.AssertExpectations(t)
	})

	t.Run("limit ends the session", func(t *testing.T) {
		f := newFixture(Options{MaxRefinements: 2})
		f.ui.choices = []int{choiceRefine, choiceRefine, choiceRefine}
		f.ui.answers = []string{"one", "two"}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches("a_1"), nil)

		s, err := f.wf.Start(context.Background(), "idea")
		assert.ErrorIs(t, err, ErrRefinementLimit)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
		assert.Equal(t, 2, s.Refinements)
		f.docs.AssertNumberOfCalls(t, "Search", 3)
	})
}

func TestWorkflow_Failures(t *testing.T) {
	t.Run("search error aborts", func(t *testing.T) {
		f := newFixture(Options{})
		f.docs.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("backend down"))

		s, err := f.wf.Start(context.Background(), "idea")
		assert.Error(t, err)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
		assert.Empty(t, f.gen.calls)
	})

	t.Run("generation error aborts", func(t *testing.T) {
		f := newFixture(Options{})
		f.gen.err = errors.New("stage prd_draft: boom")
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches(), nil)

		s, err := f.wf.Start(context.Background(), "idea")
		assert.Error(t, err)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
		assert.Contains(t, s.Error, "boom")
		assert.Empty(t, f.ui.drafts)
	})

	t.Run("store error keeps the draft for resume", func(t *testing.T) {
		f := newFixture(Options{})
		f.ui.choices = []int{0}
		f.docs.On("Search", mock.Anything, mock.Anything).Return(matches(), nil)
		f.docs.On("Store", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable")).Once()

		s, err := f.wf.Start(context.Background(), "idea")
		assert.Error(t, err)

		persisted, err := f.store.Load(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingApproval, persisted.State)
		assert.Equal(t, draft, persisted.Draft)
		assert.Contains(t, f.ui.notices[len(f.ui.notices)-1], "-resume "+s.ID)

		f.ui.choices = []int{0}
		f.docs.On("Store", mock.Anything, mock.Anything).Return(&model.StoreResult{ID: "ok"}, nil).Once()
		s, err = f.wf.Resume(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeSaved, s.Outcome)
	})

	t.Run("saving without a draft", func(t *testing.T) {
		f := newFixture(Options{})
		s := session.New("idea", time.Hour)
		s.State = session.StateSaving
		require.NoError(t, f.store.Save(context.Background(), s))

		s, err := f.wf.Resume(context.Background(), s.ID)
		assert.ErrorIs(t, err, ErrDraftMissing)
		assert.Equal(t, session.OutcomeAborted, s.Outcome)
		f.docs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})
}

func TestWorkflow_HumanTimeoutAndResume(t *testing.T) {
	f := newFixture(Options{HumanTimeout: 20 * time.Millisecond})
	f.docs.On("Search", mock.Anything, mock.Anything).Return(matches(), nil)

	s, err := f.wf.Start(context.Background(), "idea")
	assert.ErrorIs(t, err, ErrHumanTimeout)

	persisted, err := f.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingApproval, persisted.State)
	assert.True(t, persisted.Awaiting())
	assert.Equal(t, draft, persisted.Draft)
	assert.Equal(t, "Smart Pantry", persisted.ProductName)

	f.ui.choices = []int{0}
	f.docs.On("Store", mock.Anything, mock.Anything).Return(&model.StoreResult{ID: "saved"}, nil)

	s, err = f.wf.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSaved, s.Outcome)
	assert.Len(t, f.gen.calls, 1)

	_, err = f.wf.Resume(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestWorkflow_ParentCancel(t *testing.T) {
	f := newFixture(Options{HumanTimeout: time.Minute})
	f.docs.On("Search", mock.Anything, mock.Anything).Return(matches(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.wf.Start(ctx, "idea")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrHumanTimeout)
}

func TestWorkflow_StartValidation(t *testing.T) {
	f := newFixture(Options{})
	_, err := f.wf.Start(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = f.wf.Resume(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestProductName(t *testing.T) {
	long := "An app that helps households track pantry items and reduce food waste every week"

	tests := []struct {
		name        string
		draft       string
		description string
		want        string
	}{
		{"first h1", "intro\n# Smart Pantry\n# Other", "x", "Smart Pantry"},
		{"closing hashes", "#  Smart Pantry ##", "x", "Smart Pantry"},
		{"trailing hash is part of the name", "# C#", "x", "C#"},
		{"trailing hash before closing run", "# F# ##", "x", "F#"},
		{"h2 is ignored", "## Section\ntext", "pantry tracker", "pantry tracker"},
		{"no heading", "plain", "  pantry\n tracker ", "pantry tracker"},
		{"clipped description", "", long, "An app that helps households track pantry items and reduce f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProductName(tt.draft, tt.description))
		})
	}
}

func TestWorkflow_ResumeInterrupted(t *testing.T) {
	f := newFixture(Options{})
	s := session.New("idea", time.Hour)
	s.State = session.StateGenerating
	require.NoError(t, f.store.Save(context.Background(), s))
	f.ui.choices = []int{1}

	got, err := f.wf.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRejected, got.Outcome)
	assert.Contains(t, f.ui.notices[0], "interrupted while generating")
	assert.Equal(t, []string{"idea"}, f.gen.calls)
}

func TestWorkflow_ResumeAwaitingHasNoInterruptNotice(t *testing.T) {
	f := newFixture(Options{})
	s := session.New("idea", time.Hour)
	s.State = session.StateAwaitingApproval
	s.Draft = draft
	require.NoError(t, f.store.Save(context.Background(), s))
	f.ui.choices = []int{1}

	_, err := f.wf.Resume(context.Background(), s.ID)
	require.NoError(t, err)
	for _, n := range f.ui.notices {
		assert.NotContains(t, n, "interrupted")
	}
}

func TestWorkflow_Discard(t *testing.T) {
	f := newFixture(Options{})
	s := session.New("idea", time.Hour)
	s.State = session.StateAwaitingDuplicateDecision
	require.NoError(t, f.store.Save(context.Background(), s))

	require.NoError(t, f.wf.Discard(context.Background(), s.ID))

	_, err := f.store.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, f.wf.Discard(context.Background(), s.ID), session.ErrSessionNotFound)
}
