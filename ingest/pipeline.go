// Package ingest orchestrates the wallpaper upload pipeline: validate,
// derive metadata, generate resolution variants and persist them through the
// selected storage backend.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/resolution"
	"github.com/leeforge/gallery/storage"
	"github.com/leeforge/gallery/utils"
)

const (
	folderOriginal    = "wallpapers/original"
	folderThumbnail   = "wallpapers/thumbnail"
	folderMedium      = "wallpapers/medium"
	folderResolutions = "wallpapers/resolutions"

	sweepQuality = 90

	defaultSweepWorkers = 4
)

// BackendResolver yields the active storage backend. *storage.Selector
// satisfies it.
type BackendResolver interface {
	Active(ctx context.Context) storage.Backend
}

// Namer provides a unique, URL-safe name per upload.
type Namer interface {
	UniqueName(title string) string
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func(title string) string

func (f NamerFunc) UniqueName(title string) string { return f(title) }

// DefaultNamer derives names with an embedded timestamp and random suffix.
var DefaultNamer Namer = NamerFunc(utils.UniqueName)

// Options are the descriptive fields accompanying an upload.
type Options struct {
	Title string
}

// NamedAsset pairs a catalog resolution name with its stored asset.
type NamedAsset struct {
	Name  string              `json:"name"`
	Asset storage.StoredAsset `json:"asset"`
}

// VariantOutcome is the per-catalog-entry attempt result of the sweep.
// Failed entries carry Err and are filtered out of the final result; the
// non-fatal-per-item contract is part of this shape, not hidden control
// flow.
type VariantOutcome struct {
	Spec  resolution.Spec
	Asset storage.StoredAsset
	Err   error
}

// Result is the pipeline's sole output. It carries no identity of its own;
// identity is assigned by the persistence boundary.
type Result struct {
	Original     storage.StoredAsset `json:"original"`
	Thumbnail    storage.StoredAsset `json:"thumbnail"`
	Medium       storage.StoredAsset `json:"medium"`
	Variants     []NamedAsset        `json:"variants"`
	PrimaryColor string              `json:"primaryColor"`
	Metadata     codec.Metadata      `json:"metadata"`
}

// Pipeline is stateless between invocations; all state is immutable input,
// the selector's cache, or per-invocation locals.
type Pipeline struct {
	resolver     BackendResolver
	namer        Namer
	limits       codec.ValidationLimits
	sweepWorkers int
	log          logging.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithSweepWorkers bounds the catalog sweep parallelism.
func WithSweepWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sweepWorkers = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log logging.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New creates an ingestion pipeline.
func New(resolver BackendResolver, namer Namer, limits codec.ValidationLimits, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:     resolver,
		namer:        namer,
		limits:       limits,
		sweepWorkers: defaultSweepWorkers,
		log:          logging.L().Named("ingest"),
	}
	if p.namer == nil {
		p.namer = DefaultNamer
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs the pipeline for one upload. Validation and core-upload
// failures are fatal; per-entry catalog sweep failures are logged and the
// entry is omitted from the result.
func (p *Pipeline) Ingest(ctx context.Context, buf []byte, opts Options) (*Result, error) {
	// 1. Validate before any side effect.
	validation := codec.Validate(buf, p.limits)
	if !validation.Valid {
		return nil, errors.NewValidation(validation.Errors)
	}
	meta := *validation.Metadata

	// 2. Dominant color is best-effort and never fails the pipeline.
	primaryColor := codec.DominantColor(buf)

	// 3. One unique name per upload keys every derived object.
	name := p.namer.UniqueName(opts.Title)

	// 4. Resolve the active backend once for the whole invocation.
	backend := p.resolver.Active(ctx)

	log := p.log.With(zap.String("name", name), zap.String("backend", backend.Name()))

	// 5. Original, thumbnail and medium have no data dependency on each
	// other; upload all three in parallel and wait before the sweep.
	core, err := p.uploadCore(ctx, backend, buf, name, meta)
	if err != nil {
		log.WithError(err).Error("core upload failed, aborting ingestion")
		return nil, err
	}

	// 6. Catalog sweep: attempt all, collect outcomes, degrade gracefully.
	outcomes := p.sweep(ctx, backend, buf, name)

	variants := make([]NamedAsset, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			log.WithError(outcome.Err).Warn("catalog variant skipped",
				zap.String("resolution", outcome.Spec.Name))
			continue
		}
		variants = append(variants, NamedAsset{Name: outcome.Spec.Name, Asset: outcome.Asset})
	}

	return &Result{
		Original:     core.original,
		Thumbnail:    core.thumbnail,
		Medium:       core.medium,
		Variants:     variants,
		PrimaryColor: primaryColor,
		Metadata:     meta,
	}, nil
}

type coreAssets struct {
	original  storage.StoredAsset
	thumbnail storage.StoredAsset
	medium    storage.StoredAsset
}

// uploadCore generates the fixed thumbnail/medium helper variants and
// uploads them together with the original buffer, in parallel.
func (p *Pipeline) uploadCore(ctx context.Context, backend storage.Backend, buf []byte, name string, meta codec.Metadata) (*coreAssets, error) {
	var core coreAssets

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		asset, err := backend.Upload(ctx, buf, storage.UploadOptions{
			Folder:   folderOriginal,
			Filename: name,
			Format:   meta.Format,
		})
		if err != nil {
			return err
		}
		asset.Width = meta.Width
		asset.Height = meta.Height
		asset.Format = meta.Format
		core.original = asset
		return nil
	})

	g.Go(func() error {
		asset, err := p.uploadHelper(ctx, backend, buf, name+"-thumb", folderThumbnail, resolution.Thumbnail())
		if err != nil {
			return err
		}
		core.thumbnail = asset
		return nil
	})

	g.Go(func() error {
		asset, err := p.uploadHelper(ctx, backend, buf, name+"-medium", folderMedium, resolution.Medium())
		if err != nil {
			return err
		}
		core.medium = asset
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &core, nil
}

func (p *Pipeline) uploadHelper(ctx context.Context, backend storage.Backend, buf []byte, filename, folder string, params resolution.HelperParams) (storage.StoredAsset, error) {
	variant, err := codec.Resize(buf, params.Width, params.Height, codec.ResizeOptions{
		Quality: params.Quality,
		Format:  params.Format,
	})
	if err != nil {
		return storage.StoredAsset{}, err
	}

	asset, err := backend.Upload(ctx, variant.Buffer, storage.UploadOptions{
		Folder:   folder,
		Filename: filename,
		Format:   variant.Format,
	})
	if err != nil {
		return storage.StoredAsset{}, err
	}
	asset.Width = variant.Width
	asset.Height = variant.Height
	asset.Format = variant.Format
	return asset, nil
}

// sweep generates and uploads every catalog resolution with bounded
// parallelism. It always returns one outcome per catalog entry, in catalog
// order; failures never abort the sweep.
func (p *Pipeline) sweep(ctx context.Context, backend storage.Backend, buf []byte, name string) []VariantOutcome {
	catalog := resolution.Catalog()
	outcomes := make([]VariantOutcome, len(catalog))

	g := &errgroup.Group{}
	g.SetLimit(p.sweepWorkers)

	for i, spec := range catalog {
		i, spec := i, spec
		g.Go(func() error {
			outcomes[i] = p.attemptVariant(ctx, backend, buf, name, spec)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) attemptVariant(ctx context.Context, backend storage.Backend, buf []byte, name string, spec resolution.Spec) VariantOutcome {
	outcome := VariantOutcome{Spec: spec}

	variant, err := codec.Resize(buf, spec.Width, spec.Height, codec.ResizeOptions{Quality: sweepQuality})
	if err != nil {
		outcome.Err = err
		return outcome
	}

	asset, err := backend.Upload(ctx, variant.Buffer, storage.UploadOptions{
		Folder:   folderResolutions,
		Filename: fmt.Sprintf("%s-%s", name, utils.Slugify(spec.Name)),
		Format:   variant.Format,
	})
	if err != nil {
		outcome.Err = err
		return outcome
	}

	asset.Width = variant.Width
	asset.Height = variant.Height
	asset.Format = variant.Format
	outcome.Asset = asset
	return outcome
}
