package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"profilemeister/internal/activities"
	"profilemeister/internal/profile"
	"profilemeister/internal/util"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

// fakeBackend stands in for the worker-side activities: an in-memory
// response cache plus a scripted gateway. It survives across test
// environments so rerun scenarios share cache state like a real deployment.
type fakeBackend struct {
	mu sync.Mutex

	store         map[string]string
	generateCalls []activities.LLMGenerateInput
	sectionStates map[string][]string
	cacheWrites   int

	genFn func(in activities.LLMGenerateInput) (activities.LLMGenerateOutput, error)
	putFn func(key, text string) error

	// Called with the mutex held after each section status update.
	onSectionStatus func(in activities.UpdateSectionStatusInput)
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		store:         map[string]string{},
		sectionStates: map[string][]string{},
	}
	b.genFn = func(in activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{
			Text:         fmt.Sprintf("text-%s-%s", in.SectionID, in.Operation),
			ProviderName: "mock",
			Model:        "mock-llm-v1",
		}, nil
	}
	return b
}

func (b *fakeBackend) generated() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.generateCalls)
}

func (b *fakeBackend) generatedFor(sectionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.generateCalls {
		if c.SectionID == sectionID {
			n++
		}
	}
	return n
}

func (b *fakeBackend) statesOf(sectionID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sectionStates[sectionID]...)
}

func (b *fakeBackend) registerSectionActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "CacheLookupActivity", func(_ context.Context, in activities.CacheLookupInput) (activities.CacheLookupOutput, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		text, ok := b.store[in.Key]
		return activities.CacheLookupOutput{Text: text, Hit: ok}, nil
	})
	registerActivityName(env, "CacheWriteActivity", func(_ context.Context, in activities.CacheWriteInput) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.cacheWrites++
		if b.putFn != nil {
			return b.putFn(in.Key, in.Text)
		}
		if existing, ok := b.store[in.Key]; ok && existing != in.Text {
			return fmt.Errorf("%w: key %s", util.ErrCacheCollision, in.Key)
		}
		b.store[in.Key] = in.Text
		return nil
	})
	registerActivityName(env, "LLMGenerateActivity", func(_ context.Context, in activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		b.mu.Lock()
		b.generateCalls = append(b.generateCalls, in)
		fn := b.genFn
		b.mu.Unlock()
		return fn(in)
	})
	registerActivityName(env, "UpdateSectionStatusActivity", func(_ context.Context, in activities.UpdateSectionStatusInput) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.sectionStates[in.SectionID] = append(b.sectionStates[in.SectionID], in.State)
		if b.onSectionStatus != nil {
			b.onSectionStatus(in)
		}
		return nil
	})
	registerActivityName(env, "LogModelCallActivity", func(_ context.Context, in activities.LogModelCallInput) error {
		return nil
	})
}

func sectionEnv(b *fakeBackend) *testsuite.TestWorkflowEnvironment {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(SectionPipelineWorkflow)
	b.registerSectionActivities(env)
	return env
}

func sectionInput() SectionPipelineInput {
	return SectionPipelineInput{
		RunID:         "run-1",
		SectionID:     "operating-footprint",
		SectionNumber: 1,
		SectionTitle:  "Operating Footprint",
		SectionSpecs:  "Employees, production facilities, sales network.",
		CompanyName:   "Acme",
		BundleFP:      "fp-1",
		Context:       []string{`<document filename="Acme_AR_2025.pdf">...</document>`},
	}
}

func TestSectionPipelineAllStagesSucceed(t *testing.T) {
	b := newFakeBackend()
	env := sectionEnv(b)

	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateDone, res.State)
	require.Equal(t, "text-operating-footprint-section_insight_refine", res.Text)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, 0, res.CacheHits)
	require.Equal(t, 3, b.generated())
	require.Len(t, b.store, 3)

	states := b.statesOf("operating-footprint")
	require.Equal(t, []string{"drafting", "fact_refining", "insight_refining", "done"}, states)
}

func TestSectionPipelineRerunServesFromCache(t *testing.T) {
	b := newFakeBackend()

	env := sectionEnv(b)
	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 3, b.generated())

	env = sectionEnv(b)
	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateDone, res.State)
	require.Equal(t, 3, res.CacheHits)
	require.Equal(t, 3, b.generated(), "a rerun over identical inputs must not call the gateway")
}

func TestSectionPipelineRerunWithDifferentContextRegenerates(t *testing.T) {
	b := newFakeBackend()

	env := sectionEnv(b)
	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 3, b.generated())

	// Same bundle fingerprint but differently clipped context blocks, as a
	// lowered per-document rune limit would produce.
	in := sectionInput()
	in.Context = []string{`<document filename="Acme_AR_2025.pdf">..</document>`}
	env = sectionEnv(b)
	env.ExecuteWorkflow(SectionPipelineWorkflow, in)
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateDone, res.State)
	require.Equal(t, 0, res.CacheHits)
	require.Equal(t, 6, b.generated(), "changed context must not be served from cache")
}

func TestSectionPipelineRateLimitedRetriesThenSucceeds(t *testing.T) {
	b := newFakeBackend()
	failures := 2
	b.genFn = func(in activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		if failures > 0 {
			failures--
			return activities.LLMGenerateOutput{}, errors.New("rate limit exceeded")
		}
		return activities.LLMGenerateOutput{Text: "text-" + in.Operation, ProviderName: "mock", Model: "m"}, nil
	}
	env := sectionEnv(b)

	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateDone, res.State)
	require.Equal(t, 5, res.Attempts)
	require.Equal(t, 5, b.generated())
	require.Equal(t, 3, b.cacheWrites, "each stage result is cached exactly once despite retries")
}

func TestSectionPipelineContentRejectedFailsWithoutRetry(t *testing.T) {
	b := newFakeBackend()
	b.genFn = func(activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, errors.New("blocked by safety filter")
	}
	env := sectionEnv(b)

	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateFailed, res.State)
	require.Equal(t, string(profile.ReasonContentRejected), res.FailReason)
	require.Equal(t, string(profile.StageDraft), res.FailStage)
	require.Equal(t, 1, b.generated(), "content rejections must not be retried")
	require.Equal(t, 0, b.cacheWrites)
}

func TestSectionPipelineMalformedFailsWithoutRetry(t *testing.T) {
	b := newFakeBackend()
	b.genFn = func(activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, errors.New("malformed response body")
	}
	env := sectionEnv(b)

	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateFailed, res.State)
	require.Equal(t, string(profile.ReasonMalformed), res.FailReason)
	require.Equal(t, 1, b.generated())
}

func TestSectionPipelineGatewayExhausted(t *testing.T) {
	b := newFakeBackend()
	b.genFn = func(activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, errors.New("read tcp: connection reset by peer")
	}
	env := sectionEnv(b)

	in := sectionInput()
	in.MaxGatewayAttempts = 3
	env.ExecuteWorkflow(SectionPipelineWorkflow, in)
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateFailed, res.State)
	require.Equal(t, string(profile.ReasonGatewayExhausted), res.FailReason)
	require.Equal(t, string(profile.StageDraft), res.FailStage)
	require.Equal(t, 3, b.generated())
}

func TestSectionPipelineCacheCollisionFailsSection(t *testing.T) {
	b := newFakeBackend()
	b.putFn = func(key, text string) error {
		return fmt.Errorf("%w: key %s", util.ErrCacheCollision, key)
	}
	env := sectionEnv(b)

	env.ExecuteWorkflow(SectionPipelineWorkflow, sectionInput())
	require.NoError(t, env.GetWorkflowError())

	var res SectionPipelineResult
	require.NoError(t, env.GetWorkflowResult(&res))
	require.Equal(t, profile.StateFailed, res.State)
	require.Equal(t, string(profile.ReasonCacheCollision), res.FailReason)
}

func TestSectionPipelineDraftPromptCarriesDependencies(t *testing.T) {
	b := newFakeBackend()
	env := sectionEnv(b)

	in := sectionInput()
	in.SectionID = "swot-analysis"
	in.Dependencies = []SectionDependency{
		{ID: "financial-overview", Title: "Financial Overview", Text: "Revenue grew 12% in FY2025."},
	}
	env.ExecuteWorkflow(SectionPipelineWorkflow, in)
	require.NoError(t, env.GetWorkflowError())

	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.generateCalls)
	draft := b.generateCalls[0]
	require.Equal(t, "section_draft", draft.Operation)
	require.Contains(t, draft.Prompt, "Revenue grew 12% in FY2025.")
	require.Contains(t, draft.Prompt, `<upstream_section id="financial-overview"`)
}
