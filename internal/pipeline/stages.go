package pipeline

import (
	"context"
	"errors"

	"github.com/spiffcs/stalemate/internal/constants"
	"github.com/spiffcs/stalemate/internal/core"
	"github.com/spiffcs/stalemate/internal/features"
	"github.com/spiffcs/stalemate/internal/indicators"
	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
	"github.com/spiffcs/stalemate/internal/store"
	"github.com/spiffcs/stalemate/internal/timeline"
	"github.com/spiffcs/stalemate/internal/tui"
)

// processStage classifies raw timelines into per pull request lifecycles.
func (p *Pipeline) processStage() Stage {
	classifier := timeline.NewClassifier(p.opts.StaleBot, p.opts.Automation)
	return Stage{
		Name:        "process",
		Description: "processing data",
		Task:        tui.TaskProcess,
		Input:       constants.TableTimelines,
		Outputs:     []string{constants.TableDataframe},
		Run: func(ctx context.Context, project string) error {
			l := log.Stage("process", project)
			events, err := p.store.ReadEvents(constants.TableTimelines, project)
			if err != nil {
				return err
			}
			rows, err := classifier.ClassifyProject(ctx, events, p.opts.Workers)
			if err != nil {
				return err
			}
			if err := p.store.WriteRows(ctx, constants.TableDataframe, project, rows, false); err != nil {
				return err
			}
			l.Done("events", len(events), "rows", len(rows))
			return nil
		},
	}
}

// postprocessStage tags core contributors and records project statistics.
func (p *Pipeline) postprocessStage() Stage {
	return Stage{
		Name:        "postprocess",
		Description: "postprocessing data",
		Task:        tui.TaskPostprocess,
		Input:       constants.TableDataframe,
		Outputs:     []string{constants.TableDataset},
		Concurrent:  true,
		Reset: func() error {
			if p.stats == nil {
				return nil
			}
			return p.stats.Reset()
		},
		Run: func(ctx context.Context, project string) error {
			l := log.Stage("postprocess", project)
			rows, err := p.store.ReadRows(constants.TableDataframe, project)
			if err != nil {
				return err
			}
			rows = core.Tag(rows, p.opts.Ghost)
			if err := p.store.WriteRows(ctx, constants.TableDataset, project, rows, true); err != nil {
				return err
			}
			if p.stats != nil {
				stats := core.Summarize(project, rows, p.lookupMetadata(ctx, project))
				if err := p.stats.Append(stats); err != nil {
					return err
				}
			}
			l.Done("rows", len(rows))
			return nil
		},
	}
}

// featuresStage measures the features of every pull request.
func (p *Pipeline) featuresStage() Stage {
	return Stage{
		Name:        "features",
		Description: "measuring features",
		Task:        tui.TaskFeatures,
		Input:       constants.TableDataset,
		Outputs:     []string{constants.TableFeatures},
		Run: func(ctx context.Context, project string) error {
			l := log.Stage("features", project)
			rows, err := p.store.ReadRows(constants.TableDataset, project)
			if err != nil {
				return err
			}
			texts, err := p.store.ReadPulls(constants.TablePulls, project)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if errors.Is(err, store.ErrNotFound) {
				l.Warn("no pull request texts, descriptions count as empty")
			}
			patches, err := p.store.ReadPatches(constants.TablePatches, project)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if errors.Is(err, store.ErrNotFound) {
				l.Warn("no patches, commits count as empty")
			}

			x := features.NewExtractor(project, rows, texts, patches, p.opts.ReferenceTime)
			measured, err := x.MeasureAll(ctx, p.opts.Workers)
			if err != nil {
				return err
			}
			if err := p.store.WriteFeatures(ctx, constants.TableFeatures, project, measured); err != nil {
				return err
			}
			l.Done("pulls", len(measured))
			return nil
		},
	}
}

// indicatorsStage aggregates features and stale activity per month.
func (p *Pipeline) indicatorsStage() Stage {
	return Stage{
		Name:        "indicators",
		Description: "measuring indicators",
		Task:        tui.TaskIndicators,
		Input:       constants.TableFeatures,
		Outputs: []string{
			constants.TableFeaturesFixed,
			constants.TableActivity,
			constants.TableIndicators,
		},
		Concurrent: true,
		Run: func(ctx context.Context, project string) error {
			l := log.Stage("indicators", project)
			rows, err := p.store.ReadRows(constants.TableDataset, project)
			if err != nil {
				return err
			}
			feats, err := p.store.ReadFeatures(constants.TableFeatures, project)
			if err != nil {
				return err
			}

			res, err := indicators.Measure(rows, feats, p.lookupMetadata(ctx, project), indicators.Options{
				Anchor:        p.opts.Anchors[project],
				WarningWindow: p.opts.WarningWindow,
			})
			if errors.Is(err, indicators.ErrNoStaleActivity) {
				l.Warn("skipping project without stale bot activity")
				return nil
			}
			if err != nil {
				return err
			}
			return p.writeIndicators(ctx, l, project, res)
		},
	}
}

func (p *Pipeline) writeIndicators(ctx context.Context, l *log.StageLogger, project string, res indicators.Result) error {
	if err := p.store.WriteFeatures(ctx, constants.TableFeaturesFixed, project, res.Features); err != nil {
		return err
	}
	if err := p.store.WriteActivity(ctx, constants.TableActivity, project, res.Activity); err != nil {
		return err
	}
	if err := p.store.WriteIndicators(ctx, constants.TableIndicators, project, res.Indicators); err != nil {
		return err
	}
	l.Done("months", len(res.Activity), "indicators", len(res.Indicators), "unresolved", unresolved(res.Features))
	return nil
}

// unresolved counts pull requests left out of the monthly funnel.
func unresolved(features []model.Feature) int {
	n := 0
	for _, f := range features {
		if !f.Status.Resolved() {
			n++
		}
	}
	return n
}
