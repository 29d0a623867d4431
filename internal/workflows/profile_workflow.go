package workflows

import (
	"time"

	"profilemeister/internal/activities"
	"profilemeister/internal/catalog"
	"profilemeister/internal/profile"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetProgress        = "GetProgress"
	QueryGetSectionProgress = "GetSectionProgress"
)

// ProfileBuildWorkflow builds one company profile end to end: extract the
// document bundle, fan every catalog section out to its own child workflow
// and assemble whatever finished into the final report. Sections start the
// moment their dependencies are done, bounded by the concurrency cap, and a
// failed section never takes the run down with it. Only a cache collision or
// an explicit cancellation ends the run early.
func ProfileBuildWorkflow(ctx workflow.Context, input ProfileBuildInput) (ProfileProgress, error) {
	progress := ProfileProgress{
		RunID:         input.RunID,
		Status:        profile.RunStateRunning,
		PerSection:    map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (ProfileProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	cat := catalog.Default()
	if len(input.Dependencies) > 0 {
		var err error
		cat, err = cat.Apply(&catalog.Overrides{Dependencies: input.Dependencies})
		if err != nil {
			return failRun(ctx, &progress, err)
		}
	}
	specs, err := cat.Resolve(input.Sections)
	if err != nil {
		return failRun(ctx, &progress, err)
	}

	_ = workflow.ExecuteActivity(ctx, "UpdateRunActivity", activities.UpdateRunInput{
		RunID:  input.RunID,
		Status: profile.RunStateRunning,
	}).Get(ctx, nil)

	var bundleOut activities.BuildBundleOutput
	if err := workflow.ExecuteActivity(ctx, "BuildBundleActivity", activities.BuildBundleInput{
		RunID:          input.RunID,
		InputDir:       input.InputDir,
		MaxBundleBytes: input.MaxBundleBytes,
		MaxRunesPerDoc: input.MaxRunesPerDoc,
	}).Get(ctx, &bundleOut); err != nil {
		return failRun(ctx, &progress, err)
	}
	progress.CompanyName = bundleOut.CompanyName
	_ = workflow.ExecuteActivity(ctx, "UpdateRunActivity", activities.UpdateRunInput{
		RunID:       input.RunID,
		CompanyName: bundleOut.CompanyName,
		BundleFP:    bundleOut.BundleFP,
	}).Get(ctx, nil)

	progress.Total = len(specs)
	for _, s := range specs {
		progress.PerSection[s.ID] = profile.StatePending
		_ = workflow.ExecuteActivity(ctx, "UpdateSectionStatusActivity", activities.UpdateSectionStatusInput{
			RunID:     input.RunID,
			SectionID: s.ID,
			State:     profile.StatePending,
		}).Get(ctx, nil)
	}

	maxConcurrent := input.MaxConcurrentSections
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	results := make(map[string]SectionPipelineResult, len(specs))
	running := 0
	finished := 0
	fatal := false
	cancelled := false

	record := func(res SectionPipelineResult) {
		results[res.SectionID] = res
		progress.PerSection[res.SectionID] = res.State
		if res.State == profile.StateDone {
			progress.Done++
		} else {
			progress.Failed++
		}
		if res.FailReason == string(profile.ReasonCacheCollision) {
			fatal = true
		}
	}
	depsTerminal := func(s catalog.SectionSpec) bool {
		for _, dep := range s.DependsOn {
			if _, ok := results[dep]; !ok {
				return false
			}
		}
		return true
	}
	failedDep := func(s catalog.SectionSpec) bool {
		for _, dep := range s.DependsOn {
			if results[dep].State != profile.StateDone {
				return true
			}
		}
		return false
	}

	for _, s := range specs {
		s := s
		workflow.Go(ctx, func(gctx workflow.Context) {
			defer func() { finished++ }()

			if err := workflow.Await(gctx, func() bool {
				return fatal || cancelled || depsTerminal(s)
			}); err != nil {
				cancelled = true
				record(skipSection(gctx, input.RunID, s.ID, profile.ReasonRunCancelled))
				return
			}
			if fatal || cancelled {
				record(skipSection(gctx, input.RunID, s.ID, profile.ReasonRunCancelled))
				return
			}
			if failedDep(s) {
				record(skipSection(gctx, input.RunID, s.ID, profile.ReasonDependencyFailed))
				return
			}

			if err := workflow.Await(gctx, func() bool {
				return fatal || cancelled || running < maxConcurrent
			}); err != nil || fatal || cancelled {
				cancelled = cancelled || err != nil
				record(skipSection(gctx, input.RunID, s.ID, profile.ReasonRunCancelled))
				return
			}
			running++

			deps := make([]SectionDependency, 0, len(s.DependsOn))
			for _, dep := range s.DependsOn {
				title := dep
				if ds, ok := cat.Get(dep); ok {
					title = ds.Title
				}
				deps = append(deps, SectionDependency{ID: dep, Title: title, Text: results[dep].Text})
			}

			childID := "section-" + input.RunID + "-" + s.ID
			progress.ChildWorkflow[s.ID] = childID
			cctx := workflow.WithChildOptions(gctx, workflow.ChildWorkflowOptions{WorkflowID: childID})
			var res SectionPipelineResult
			err := workflow.ExecuteChildWorkflow(cctx, SectionPipelineWorkflow, SectionPipelineInput{
				RunID:               input.RunID,
				SectionID:           s.ID,
				SectionNumber:       s.Number,
				SectionTitle:        s.Title,
				SectionSpecs:        s.Specs,
				CompanyName:         bundleOut.CompanyName,
				BundleFP:            bundleOut.BundleFP,
				Context:             bundleOut.Context,
				Dependencies:        deps,
				MaxGatewayAttempts:  input.MaxGatewayAttempts,
				RetryInitialSeconds: input.RetryInitialSeconds,
				Provider:            input.Provider,
			}).Get(gctx, &res)
			running--
			if err != nil {
				reason := profile.ReasonGatewayExhausted
				if temporal.IsCanceledError(err) {
					cancelled = true
					reason = profile.ReasonRunCancelled
				}
				record(skipSection(gctx, input.RunID, s.ID, reason))
				return
			}
			record(res)
		})
	}

	if err := workflow.Await(ctx, func() bool { return finished == len(specs) }); err != nil {
		cancelled = true
		dctx, dcancel := workflow.NewDisconnectedContext(ctx)
		defer dcancel()
		_ = workflow.Await(dctx, func() bool { return finished == len(specs) })
	}

	uctx := ctx
	if cancelled {
		var ucancel workflow.CancelFunc
		uctx, ucancel = workflow.NewDisconnectedContext(ctx)
		defer ucancel()
	}

	entries := make([]activities.WriteProfileEntry, 0, len(specs))
	for _, s := range specs {
		res, ok := results[s.ID]
		if !ok {
			res = SectionPipelineResult{SectionID: s.ID, State: profile.StateFailed, FailReason: string(profile.ReasonRunCancelled)}
		}
		entries = append(entries, activities.WriteProfileEntry{
			SectionID:  s.ID,
			Number:     s.Number,
			Title:      s.Title,
			Text:       res.Text,
			Failed:     res.State != profile.StateDone,
			FailReason: res.FailReason,
			FailStage:  res.FailStage,
			CacheHits:  res.CacheHits,
		})
	}

	switch {
	case cancelled:
		progress.Status = profile.RunStateCancelled
	case fatal:
		progress.Status = profile.RunStateFailed
	case progress.Failed == 0:
		progress.Status = profile.RunStateCompleted
	case progress.Done == 0:
		progress.Status = profile.RunStateFailed
	default:
		progress.Status = profile.RunStateCompletedWithFailures
	}

	var written activities.WriteProfileOutput
	if err := workflow.ExecuteActivity(uctx, "WriteProfileActivity", activities.WriteProfileInput{
		RunID:       input.RunID,
		CompanyName: bundleOut.CompanyName,
		Entries:     entries,
	}).Get(uctx, &written); err == nil {
		progress.ReportPath = written.ReportPath
	}
	_ = workflow.ExecuteActivity(uctx, "UpdateRunActivity", activities.UpdateRunInput{
		RunID:      input.RunID,
		Status:     progress.Status,
		ReportPath: written.ReportPath,
	}).Get(uctx, nil)

	return progress, nil
}

// skipSection records a terminal failure for a section that never ran its
// pipeline, either because a dependency failed or because the run ended.
func skipSection(ctx workflow.Context, runID, sectionID string, reason profile.FailReason) SectionPipelineResult {
	uctx := ctx
	if reason == profile.ReasonRunCancelled {
		var cancel workflow.CancelFunc
		uctx, cancel = workflow.NewDisconnectedContext(ctx)
		defer cancel()
	}
	_ = workflow.ExecuteActivity(uctx, "UpdateSectionStatusActivity", activities.UpdateSectionStatusInput{
		RunID:      runID,
		SectionID:  sectionID,
		State:      profile.StateFailed,
		FailReason: string(reason),
	}).Get(uctx, nil)
	return SectionPipelineResult{
		SectionID:  sectionID,
		State:      profile.StateFailed,
		FailReason: string(reason),
	}
}

func failRun(ctx workflow.Context, progress *ProfileProgress, cause error) (ProfileProgress, error) {
	progress.Status = profile.RunStateFailed
	_ = workflow.ExecuteActivity(ctx, "UpdateRunActivity", activities.UpdateRunInput{
		RunID:  progress.RunID,
		Status: profile.RunStateFailed,
	}).Get(ctx, nil)
	return *progress, cause
}
