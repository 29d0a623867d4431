package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.BuildBundleActivity)
	w.RegisterActivity(a.CacheLookupActivity)
	w.RegisterActivity(a.CacheWriteActivity)
	w.RegisterActivity(a.LLMGenerateActivity)
	w.RegisterActivity(a.UpdateSectionStatusActivity)
	w.RegisterActivity(a.UpdateRunActivity)
	w.RegisterActivity(a.WriteProfileActivity)
	w.RegisterActivity(a.LogModelCallActivity)
	w.RegisterActivity(a.ListFailedSectionsActivity)
}
