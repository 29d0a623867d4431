package workflows

import (
	"strings"
	"time"

	"profilemeister/internal/activities"
	"profilemeister/internal/cache"
	"profilemeister/internal/catalog"
	"profilemeister/internal/profile"
	"profilemeister/internal/prompts"
	"profilemeister/internal/providers"
	"profilemeister/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

type stagePlan struct {
	stage       profile.Stage
	state       string
	operation   string
	temperature float64
}

var sectionStages = []stagePlan{
	{profile.StageDraft, profile.StateDrafting, "section_draft", prompts.DraftTemperature},
	{profile.StageFact, profile.StateFactRefining, "section_fact_refine", prompts.FactTemperature},
	{profile.StageInsight, profile.StateInsightRefining, "section_insight_refine", prompts.InsightTemperature},
}

// SectionPipelineWorkflow takes one section through draft, fact refinement
// and insight refinement. Each stage consults the response cache first and
// writes its result back on a miss, so a rerun over the same bundle replays
// from cache without touching the gateway. A failed stage fails the whole
// section; the caller decides what that means for the run.
func SectionPipelineWorkflow(ctx workflow.Context, input SectionPipelineInput) (SectionPipelineResult, error) {
	progress := SectionProgress{RunID: input.RunID, SectionID: input.SectionID, State: profile.StatePending}
	if err := workflow.SetQueryHandler(ctx, QueryGetSectionProgress, func() (SectionProgress, error) {
		return progress, nil
	}); err != nil {
		return SectionPipelineResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Gateway calls get exactly one server-side attempt. Retries are decided
	// here in the workflow, where the error kind is known.
	llmCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	spec := catalog.SectionSpec{
		ID:     input.SectionID,
		Number: input.SectionNumber,
		Title:  input.SectionTitle,
		Specs:  input.SectionSpecs,
	}
	depTexts := make([]string, 0, len(input.Dependencies))
	promptDeps := make([]prompts.DependencyText, 0, len(input.Dependencies))
	for _, d := range input.Dependencies {
		depTexts = append(depTexts, d.Text)
		promptDeps = append(promptDeps, prompts.DependencyText{ID: d.ID, Title: d.Title, Text: d.Text})
	}
	// Every stage call carries the rendered context blocks, so their digest
	// belongs in every key. Clip-limit changes alter the blocks and must not
	// serve text generated from differently clipped context.
	contextFP := util.SHA256Hex([]byte(strings.Join(input.Context, "\x1f")))

	text := ""
	for _, st := range sectionStages {
		progress.State = st.state
		progress.CurrentStage = string(st.stage)
		_ = workflow.ExecuteActivity(ctx, "UpdateSectionStatusActivity", activities.UpdateSectionStatusInput{
			RunID:     input.RunID,
			SectionID: input.SectionID,
			State:     st.state,
			Stage:     string(st.stage),
			Attempts:  progress.Attempts,
		}).Get(ctx, nil)

		var prompt string
		var keyInputs []string
		switch st.stage {
		case profile.StageDraft:
			prompt = prompts.RenderDraft(prompts.DraftContext{Section: spec, CompanyName: input.CompanyName, Dependencies: promptDeps})
			keyInputs = depTexts
		case profile.StageFact:
			prompt = prompts.RenderFactRefine(prompts.RefineContext{Section: spec, Input: text})
			keyInputs = []string{text}
		case profile.StageInsight:
			prompt = prompts.RenderInsightRefine(prompts.RefineContext{Section: spec, Input: text})
			keyInputs = []string{text}
		}
		key := cache.Key(input.SectionID, prompts.Version, string(st.stage), append([]string{contextFP}, keyInputs...), input.BundleFP)

		var lookup activities.CacheLookupOutput
		if err := workflow.ExecuteActivity(ctx, "CacheLookupActivity", activities.CacheLookupInput{Key: key}).Get(ctx, &lookup); err != nil {
			if temporal.IsCanceledError(err) {
				return failSection(ctx, &progress, input, st.stage, profile.ReasonRunCancelled), nil
			}
			return SectionPipelineResult{}, err
		}
		if lookup.Hit {
			progress.CacheHits++
			text = lookup.Text
			_ = workflow.ExecuteActivity(ctx, "LogModelCallActivity", activities.LogModelCallInput{
				RunID:     input.RunID,
				SectionID: input.SectionID,
				Stage:     string(st.stage),
				CacheHit:  true,
				Status:    "ok",
			}).Get(ctx, nil)
			continue
		}

		out, reason := generateWithRetry(llmCtx, ctx, &progress, input, st, prompt)
		if reason != "" {
			return failSection(ctx, &progress, input, st.stage, reason), nil
		}
		if err := workflow.ExecuteActivity(ctx, "CacheWriteActivity", activities.CacheWriteInput{Key: key, Text: out.Text}).Get(ctx, nil); err != nil {
			if isCacheCollisionError(err) {
				return failSection(ctx, &progress, input, st.stage, profile.ReasonCacheCollision), nil
			}
			if temporal.IsCanceledError(err) {
				return failSection(ctx, &progress, input, st.stage, profile.ReasonRunCancelled), nil
			}
			return SectionPipelineResult{}, err
		}
		text = out.Text
	}

	progress.State = profile.StateDone
	progress.CurrentStage = ""
	_ = workflow.ExecuteActivity(ctx, "UpdateSectionStatusActivity", activities.UpdateSectionStatusInput{
		RunID:     input.RunID,
		SectionID: input.SectionID,
		State:     profile.StateDone,
		Attempts:  progress.Attempts,
	}).Get(ctx, nil)

	return SectionPipelineResult{
		SectionID: input.SectionID,
		State:     profile.StateDone,
		Text:      text,
		CacheHits: progress.CacheHits,
		Attempts:  progress.Attempts,
	}, nil
}

// generateWithRetry drives the per-stage retry policy. Rate limits and
// transient failures back off exponentially and try again, content
// rejections and malformed responses fail the stage on the spot.
func generateWithRetry(llmCtx, ctx workflow.Context, progress *SectionProgress, input SectionPipelineInput, st stagePlan, prompt string) (activities.LLMGenerateOutput, profile.FailReason) {
	maxAttempts := input.MaxGatewayAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := time.Duration(input.RetryInitialSeconds) * time.Second
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		progress.Attempts++
		var out activities.LLMGenerateOutput
		err := workflow.ExecuteActivity(llmCtx, "LLMGenerateActivity", activities.LLMGenerateInput{
			Operation:   st.operation,
			RunID:       input.RunID,
			SectionID:   input.SectionID,
			Prompt:      prompt,
			Context:     input.Context,
			Temperature: st.temperature,
			Provider:    input.Provider,
		}).Get(llmCtx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogModelCallActivity", activities.LogModelCallInput{
				RunID:        input.RunID,
				SectionID:    input.SectionID,
				Stage:        string(st.stage),
				Attempt:      attempt,
				ProviderName: out.ProviderName,
				Model:        out.Model,
				Status:       "ok",
			}).Get(ctx, nil)
			return out, ""
		}
		if temporal.IsCanceledError(err) {
			return activities.LLMGenerateOutput{}, profile.ReasonRunCancelled
		}
		kind := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogModelCallActivity", activities.LogModelCallInput{
			RunID:     input.RunID,
			SectionID: input.SectionID,
			Stage:     string(st.stage),
			Attempt:   attempt,
			Status:    "failed",
			ErrorKind: string(kind),
		}).Get(ctx, nil)
		switch kind {
		case providers.ErrorContentRejected:
			return activities.LLMGenerateOutput{}, profile.ReasonContentRejected
		case providers.ErrorMalformed:
			return activities.LLMGenerateOutput{}, profile.ReasonMalformed
		}
		if attempt < maxAttempts {
			if err := workflow.Sleep(ctx, backoff); err != nil {
				return activities.LLMGenerateOutput{}, profile.ReasonRunCancelled
			}
			backoff *= 2
		}
	}
	return activities.LLMGenerateOutput{}, profile.ReasonGatewayExhausted
}

func failSection(ctx workflow.Context, progress *SectionProgress, input SectionPipelineInput, stage profile.Stage, reason profile.FailReason) SectionPipelineResult {
	progress.State = profile.StateFailed
	progress.FailReason = string(reason)
	uctx := ctx
	if reason == profile.ReasonRunCancelled {
		// The status update must still run after cancellation.
		var cancel workflow.CancelFunc
		uctx, cancel = workflow.NewDisconnectedContext(ctx)
		defer cancel()
	}
	_ = workflow.ExecuteActivity(uctx, "UpdateSectionStatusActivity", activities.UpdateSectionStatusInput{
		RunID:      input.RunID,
		SectionID:  input.SectionID,
		State:      profile.StateFailed,
		Stage:      string(stage),
		Attempts:   progress.Attempts,
		FailReason: string(reason),
	}).Get(uctx, nil)
	return SectionPipelineResult{
		SectionID:  input.SectionID,
		State:      profile.StateFailed,
		FailReason: string(reason),
		FailStage:  string(stage),
		CacheHits:  progress.CacheHits,
		Attempts:   progress.Attempts,
	}
}

func isCacheCollisionError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "cache key collision")
}
