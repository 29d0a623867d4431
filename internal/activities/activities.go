package activities

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"profilemeister/internal/bundle"
	"profilemeister/internal/cache"
	"profilemeister/internal/config"
	"profilemeister/internal/profile"
	"profilemeister/internal/providers"
	"profilemeister/internal/report"
	"profilemeister/internal/storage"
	"profilemeister/internal/util"
)

type Activities struct {
	cfg           config.Config
	runRepo       *storage.RunRepo
	modelCallRepo *storage.ModelCallRepo
	cache         cache.Store
	providers     *providers.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:           cfg,
		runRepo:       storage.NewRunRepo(db),
		modelCallRepo: storage.NewModelCallRepo(db),
		cache:         storage.NewCacheRepo(db),
		providers:     pm,
	}, nil
}

func (a *Activities) BuildBundleActivity(ctx context.Context, in BuildBundleInput) (BuildBundleOutput, error) {
	_ = ctx
	maxBytes := in.MaxBundleBytes
	if maxBytes <= 0 {
		maxBytes = a.cfg.MaxBundleMB << 20
	}
	b, err := bundle.BuildFromDir(in.InputDir, maxBytes)
	if err != nil {
		return BuildBundleOutput{}, err
	}
	maxRunes := in.MaxRunesPerDoc
	if maxRunes <= 0 {
		maxRunes = 400000
	}
	return BuildBundleOutput{
		CompanyName:   b.CompanyName(),
		BundleFP:      b.Fingerprint(),
		DocumentCount: len(b.Documents),
		TotalBytes:    b.TotalBytes,
		Context:       b.ContextBlocks(maxRunes),
	}, nil
}

func (a *Activities) CacheLookupActivity(ctx context.Context, in CacheLookupInput) (CacheLookupOutput, error) {
	text, hit, err := a.cache.Get(ctx, in.Key)
	if err != nil {
		return CacheLookupOutput{}, err
	}
	return CacheLookupOutput{Text: text, Hit: hit}, nil
}

func (a *Activities) CacheWriteActivity(ctx context.Context, in CacheWriteInput) error {
	return a.cache.Put(ctx, in.Key, in.Text)
}

func (a *Activities) LLMGenerateActivity(ctx context.Context, in LLMGenerateInput) (LLMGenerateOutput, error) {
	provider, ref := a.providers.First()
	if in.Provider != "" {
		p, r, ok := a.providers.ByName(in.Provider)
		if !ok {
			return LLMGenerateOutput{}, fmt.Errorf("llm provider not configured in worker: %s", in.Provider)
		}
		provider, ref = p, r
	}
	if a.cfg.GatewayTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.GatewayTimeoutSecs)*time.Second)
		defer cancel()
	}
	resp, info, err := provider.Generate(ctx, providers.GenerateRequest{
		Operation:   in.Operation,
		Prompt:      in.Prompt,
		Context:     in.Context,
		Temperature: in.Temperature,
	})
	if err != nil {
		return LLMGenerateOutput{}, fmt.Errorf("llm generate via %s failed: %w", ref.Raw, err)
	}
	return LLMGenerateOutput{
		Text:         resp.Text,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) UpdateSectionStatusActivity(ctx context.Context, in UpdateSectionStatusInput) error {
	return a.runRepo.UpsertSection(ctx, profile.SectionStatus{
		RunID:      in.RunID,
		SectionID:  in.SectionID,
		State:      in.State,
		Stage:      profile.Stage(in.Stage),
		Attempts:   in.Attempts,
		FailReason: in.FailReason,
	})
}

func (a *Activities) UpdateRunActivity(ctx context.Context, in UpdateRunInput) error {
	if in.BundleFP != "" {
		if err := a.runRepo.SetRunBundle(ctx, in.RunID, in.CompanyName, in.BundleFP); err != nil {
			return err
		}
	}
	if in.ReportPath != "" {
		return a.runRepo.SetRunReport(ctx, in.RunID, in.Status, in.ReportPath)
	}
	if in.Status != "" {
		return a.runRepo.UpdateRunStatus(ctx, in.RunID, in.Status)
	}
	return nil
}

func (a *Activities) WriteProfileActivity(ctx context.Context, in WriteProfileInput) (WriteProfileOutput, error) {
	_ = ctx
	p := profile.Profile{
		RunID:       in.RunID,
		CompanyName: in.CompanyName,
		GeneratedAt: time.Now().UTC(),
	}
	for _, e := range in.Entries {
		p.Entries = append(p.Entries, profile.Entry{
			SectionID:  e.SectionID,
			Number:     e.Number,
			Title:      e.Title,
			Text:       e.Text,
			Failed:     e.Failed,
			FailReason: profile.FailReason(e.FailReason),
			FailStage:  profile.Stage(e.FailStage),
			CacheHits:  e.CacheHits,
		})
	}
	html, err := report.Render(p)
	if err != nil {
		return WriteProfileOutput{}, err
	}
	base := filepath.Join(a.cfg.DataOutRoot, "runs", in.RunID)
	if err := util.EnsureDir(base); err != nil {
		return WriteProfileOutput{}, err
	}
	reportPath := filepath.Join(base, "profile.html")
	if err := util.WriteTextAtomic(reportPath, html); err != nil {
		return WriteProfileOutput{}, err
	}
	profilePath := filepath.Join(base, "profile.json")
	if err := util.WriteJSONAtomic(profilePath, p); err != nil {
		return WriteProfileOutput{}, err
	}
	return WriteProfileOutput{ReportPath: reportPath, ProfilePath: profilePath}, nil
}

func (a *Activities) LogModelCallActivity(ctx context.Context, in LogModelCallInput) error {
	return a.modelCallRepo.Insert(ctx, storage.ModelCallRecord{
		CallID:       in.CallID,
		RunID:        in.RunID,
		SectionID:    in.SectionID,
		Stage:        in.Stage,
		Attempt:      in.Attempt,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		CacheHit:     in.CacheHit,
		Status:       in.Status,
		ErrorKind:    in.ErrorKind,
	})
}

func (a *Activities) ListFailedSectionsActivity(ctx context.Context, in ListFailedSectionsInput) (ListFailedSectionsOutput, error) {
	sections, err := a.runRepo.ListFailedSections(ctx, in.RunID)
	if err != nil {
		return ListFailedSectionsOutput{}, err
	}
	out := ListFailedSectionsOutput{Sections: make([]FailedSection, 0, len(sections))}
	for _, s := range sections {
		out.Sections = append(out.Sections, FailedSection{SectionID: s.SectionID, FailReason: s.FailReason})
	}
	return out, nil
}
