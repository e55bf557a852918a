package app

import (
	"context"
	"errors"
	"os"

	"github.com/zclconf/go-cty/cty"

	"github.com/RaiVaibhav/coala/internal/bears"
	"github.com/RaiVaibhav/coala/internal/ctxlog"
	"github.com/RaiVaibhav/coala/internal/debug"
	"github.com/RaiVaibhav/coala/internal/pipeline"
	"github.com/RaiVaibhav/coala/internal/profile"
	"github.com/RaiVaibhav/coala/internal/settings"
)

// Run executes every configured bear invocation based on the provided
// configuration. Failing invocations are contained and never stop the run;
// only a controlled termination from a debug session ends it early.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	profileReq, err := profile.ParseRequest(appConfig.ProfileBears, appConfig.ProfileDump)
	if err != nil {
		// Invalid profiler arguments disable profiling for the whole run.
		a.logger.Warn("Invalid arguments to --profile-bears, profiling is disabled.", "error", err.Error())
		profileReq = nil
	}

	pipe := pipeline.New(a.registry, a.outW)

	sectionNames := appConfig.Sections
	if len(sectionNames) == 0 {
		sectionNames = a.model.SectionOrder
	}

	total := 0
	for _, name := range sectionNames {
		section, ok := a.model.Sections[name]
		if !ok {
			a.logger.Warn("The requested section does not exist.", "section", name)
			continue
		}
		for _, bearName := range section.Bears {
			count, err := a.runBear(ctx, pipe, bearName, section, profileReq, appConfig.DebugBears)
			if err != nil {
				if errors.Is(err, debug.ErrControlledTermination) {
					a.logger.Info("Debug session aborted the run.")
					return nil
				}
				return err
			}
			total += count
		}
	}

	a.logger.Info("Run finished.", "results", total)
	a.logger.Debug("App.Run method finished.")
	return nil
}

// runBear executes one bear over a section: once per target file for local
// bears, once overall for global bears. It returns the number of results.
func (a *App) runBear(ctx context.Context, pipe *pipeline.Pipeline, bearName string, section *settings.Section, profileReq *profile.Request, debugBears bool) (int, error) {
	overrides := func(targetFile string) *pipeline.Overrides {
		ov := &pipeline.Overrides{Profile: profileReq, TargetFile: targetFile}
		if debugBears {
			ov.Debug = &pipeline.DebugSession{In: os.Stdin, Out: a.outW}
		}
		return ov
	}

	if decl, found := a.registry.Declaration(bearName); found && decl.Kind == bears.KindLocal {
		files := targetFiles(section)
		if len(files) == 0 {
			a.logger.Warn("Local bear has no files to run on.", "bear", bearName, "section", section.Name)
			return 0, nil
		}
		total := 0
		for _, file := range files {
			results, err := pipe.Execute(ctx, bearName, section, overrides(file))
			if err != nil {
				return total, err
			}
			total += len(results)
		}
		a.logger.Info("Bear finished.", "bear", bearName, "section", section.Name, "results", total)
		return total, nil
	}

	results, err := pipe.Execute(ctx, bearName, section, overrides(""))
	if err != nil {
		return 0, err
	}
	a.logger.Info("Bear finished.", "bear", bearName, "section", section.Name, "results", len(results))
	return len(results), nil
}

// targetFiles reads the section's files setting, accepting a single path or
// a list of paths.
func targetFiles(section *settings.Section) []string {
	v, ok := section.Get("files")
	if !ok || v.IsNull() {
		return nil
	}
	if v.Type() == cty.String {
		return []string{v.AsString()}
	}
	if v.Type().IsTupleType() || v.Type().IsListType() {
		var files []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.Type() == cty.String && !ev.IsNull() {
				files = append(files, ev.AsString())
			}
		}
		return files
	}
	return nil
}
