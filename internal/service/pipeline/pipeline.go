package pipeline

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
)

type (
	// Source fetches pack metadata and asset bytes. FetchBytes returns the
	// descriptor completed with whatever the download revealed (file name).
	Source interface {
		FetchPack(ctx context.Context, name string) (*domain.Pack, error)
		FetchBytes(ctx context.Context, asset domain.AssetDescriptor) (domain.AssetDescriptor, []byte, error)
	}

	Normalizer interface {
		Normalize(ctx context.Context, asset domain.AssetDescriptor, data []byte, seq int) (domain.NormalizedResult, error)
	}

	// Progress receives per-item events in processing order.
	Progress interface {
		PackFetched(pack *domain.Pack, limit int)
		ItemStarted(seq, limit int, asset domain.AssetDescriptor)
		ItemConverted(seq int, res domain.NormalizedResult)
		ItemSkipped(seq int, asset domain.AssetDescriptor, err error)
		LimitReached(limit int)
	}
)

type Orchestrator struct {
	source     Source
	normalizer Normalizer
	progress   Progress
}

func New(source Source, normalizer Normalizer, progress Progress) *Orchestrator {
	if progress == nil {
		progress = nopProgress{}
	}

	return &Orchestrator{
		source:     source,
		normalizer: normalizer,
		progress:   progress,
	}
}

// Run fetches the pack and normalizes its stickers in order until limit
// results exist. Item failures are recorded as skips; a pack fetch failure
// or cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, packName string, limit int) (*domain.ConversionBatch, error) {
	const errMsg = "Orchestrator.Run"

	if limit <= 0 {
		return nil, errors.Wrap(errors.Errorf("limit must be positive, got %d", limit), errMsg)
	}

	pack, err := o.source.FetchPack(ctx, packName)
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = domain.Mark(err, domain.ErrFetch)
		}

		return nil, errors.Wrap(err, errMsg)
	}

	o.progress.PackFetched(pack, limit)

	batch, err := o.convert(ctx, pack, limit)
	if err != nil {
		return nil, errors.Wrap(err, errMsg)
	}

	slog.Info(
		"Pack converted",
		slog.String("pack", pack.Name),
		slog.String("title", batch.Title),
		slog.Int("converted", len(batch.Results)),
		slog.Int("skipped", batch.Skipped),
	)

	return batch, nil
}

func (o *Orchestrator) convert(ctx context.Context, pack *domain.Pack, limit int) (*domain.ConversionBatch, error) {
	batch := &domain.ConversionBatch{
		Title: pack.Title,
	}

	for i, asset := range pack.Assets {
		if len(batch.Results) >= limit {
			o.progress.LimitReached(limit)

			break
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "convert")
		}

		seq := len(batch.Results) + 1
		o.progress.ItemStarted(seq, limit, asset)

		fetched, res, err := o.process(ctx, asset, seq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "convert")
			}

			batch.Skipped++
			batch.Outcomes = append(batch.Outcomes, domain.ItemOutcome{Index: i, Asset: fetched, Err: err})
			o.progress.ItemSkipped(seq, fetched, err)

			slog.Debug(
				"Sticker skipped",
				slog.Int("index", i),
				slog.String("fileID", asset.ID),
				slog.String("kind", domain.FailureKind(err)),
				slog.Any("err", err),
			)

			continue
		}

		batch.Results = append(batch.Results, res)
		batch.Outcomes = append(batch.Outcomes, domain.ItemOutcome{Index: i, Asset: fetched, Result: &res})
		o.progress.ItemConverted(seq, res)
	}

	return batch, nil
}

func (o *Orchestrator) process(ctx context.Context, asset domain.AssetDescriptor, seq int) (domain.AssetDescriptor, domain.NormalizedResult, error) {
	const errMsg = "process"

	fetched, data, err := o.source.FetchBytes(ctx, asset)
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = domain.Mark(err, domain.ErrFetch)
		}

		return asset, domain.NormalizedResult{}, errors.Wrap(err, errMsg)
	}

	res, err := o.normalizer.Normalize(ctx, fetched, data, seq)
	if err != nil {
		return fetched, domain.NormalizedResult{}, errors.Wrap(err, errMsg)
	}

	return fetched, res, nil
}

type nopProgress struct{}

func (nopProgress) PackFetched(*domain.Pack, int) {}
func (nopProgress) ItemStarted(int, int, domain.AssetDescriptor) {}
func (nopProgress) ItemConverted(int, domain.NormalizedResult) {}
func (nopProgress) ItemSkipped(int, domain.AssetDescriptor, error) {}
func (nopProgress) LimitReached(int) {}
