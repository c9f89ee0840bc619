package gallery

import (
	"context"

	"go.uber.org/zap"

	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/ingest"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/storage"
	"github.com/leeforge/gallery/utils"
)

// StatusPublished is the only status surfaced to public browsing.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Service orchestrates the ingestion pipeline and the stores. It owns the
// compensation for orphaned assets: when persistence fails after a
// successful ingest, the uploaded assets are deleted best-effort.
type Service struct {
	wallpapers WallpaperStore
	categories CategoryStore
	stats      StatsStore
	pipeline   *ingest.Pipeline
	resolver   ingest.BackendResolver
	log        logging.Logger
}

func NewService(
	wallpapers WallpaperStore,
	categories CategoryStore,
	stats StatsStore,
	pipeline *ingest.Pipeline,
	resolver ingest.BackendResolver,
	log logging.Logger,
) *Service {
	if log == nil {
		log = logging.L().Named("gallery")
	}
	return &Service{
		wallpapers: wallpapers,
		categories: categories,
		stats:      stats,
		pipeline:   pipeline,
		resolver:   resolver,
		log:        log,
	}
}

// CreateWallpaper runs the full intake: ingest the buffer, persist the
// record, compensate on persistence failure.
func (s *Service) CreateWallpaper(ctx context.Context, buf []byte, in CreateInput) (*Wallpaper, error) {
	if in.Title == "" {
		return nil, errors.NewValidation([]string{"title is required"})
	}

	result, err := s.pipeline.Ingest(ctx, buf, ingest.Options{Title: in.Title})
	if err != nil {
		return nil, err
	}

	w := s.fromResult(result, in)
	if err := s.wallpapers.Create(ctx, w); err != nil {
		// A slug collision is recoverable; retry once with a unique name.
		if errors.IsType(err, errors.ErrorTypeConflict) {
			w.Slug = utils.UniqueName(in.Title)
			err = s.wallpapers.Create(ctx, w)
		}
		if err != nil {
			s.compensate(ctx, result)
			return nil, err
		}
	}
	return w, nil
}

func (s *Service) fromResult(result *ingest.Result, in CreateInput) *Wallpaper {
	w := &Wallpaper{
		Title:            in.Title,
		Slug:             utils.Slugify(in.Title),
		Description:      in.Description,
		OriginalURL:      result.Original.URL,
		OriginalAssetID:  result.Original.AssetID,
		ThumbnailURL:     result.Thumbnail.URL,
		ThumbnailAssetID: result.Thumbnail.AssetID,
		MediumURL:        result.Medium.URL,
		MediumAssetID:    result.Medium.AssetID,
		PrimaryColor:     result.PrimaryColor,
		Width:            result.Metadata.Width,
		Height:           result.Metadata.Height,
		ByteSize:         result.Metadata.ByteSize,
		Format:           result.Metadata.Format,
		Status:           StatusPublished,
		CategoryIDs:      in.CategoryIDs,
	}
	for _, v := range result.Variants {
		w.Resolutions = append(w.Resolutions, Resolution{
			Name:     v.Name,
			URL:      v.Asset.URL,
			AssetID:  v.Asset.AssetID,
			Width:    v.Asset.Width,
			Height:   v.Asset.Height,
			ByteSize: v.Asset.ByteSize,
		})
	}
	return w
}

// compensate deletes every asset the ingest uploaded. Failures are logged;
// an orphaned object is preferable to failing the caller twice.
func (s *Service) compensate(ctx context.Context, result *ingest.Result) {
	backend := s.resolver.Active(ctx)
	ids := []string{result.Original.AssetID, result.Thumbnail.AssetID, result.Medium.AssetID}
	for _, v := range result.Variants {
		ids = append(ids, v.Asset.AssetID)
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := backend.Delete(ctx, id); err != nil {
			s.log.WithError(err).Warn("compensating asset delete failed",
				zap.String("assetId", id), zap.String("backend", backend.Name()))
		}
	}
}

// Browse lists published wallpapers.
func (s *Service) Browse(ctx context.Context, opts ListOptions) (*Page, error) {
	if opts.Status == "" {
		opts.Status = StatusPublished
	}
	return s.wallpapers.List(ctx, opts)
}

// Search matches published wallpapers against title and description.
func (s *Service) Search(ctx context.Context, query string, opts ListOptions) (*Page, error) {
	if opts.Status == "" {
		opts.Status = StatusPublished
	}
	return s.wallpapers.Search(ctx, query, opts)
}

// GetBySlug fetches one wallpaper and records the view best-effort.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Wallpaper, error) {
	w, err := s.wallpapers.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.recordView(ctx, w.ID)
	w.ViewCount++
	return w, nil
}

// Download resolves the download URL for a wallpaper and records the
// download. With transform options set, the URL is built by the active
// backend, which applies them at retrieval time when it can; static
// backends return the plain object URL by contract. Counter failures never
// block the download itself.
func (s *Service) Download(ctx context.Context, slug string, opts storage.TransformOptions) (string, error) {
	w, err := s.wallpapers.BySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if err := s.wallpapers.IncrementDownload(ctx, w.ID); err != nil {
		s.log.WithError(err).Warn("download counter increment failed", zap.String("id", w.ID))
	}
	if s.stats != nil {
		if err := s.stats.RecordDownload(ctx, w.ID); err != nil {
			s.log.WithError(err).Warn("download stat record failed", zap.String("id", w.ID))
		}
	}
	if opts != (storage.TransformOptions{}) {
		return s.resolver.Active(ctx).URL(w.OriginalAssetID, opts), nil
	}
	return w.OriginalURL, nil
}

func (s *Service) recordView(ctx context.Context, id string) {
	if err := s.wallpapers.IncrementView(ctx, id); err != nil {
		s.log.WithError(err).Warn("view counter increment failed", zap.String("id", id))
	}
	if s.stats != nil {
		if err := s.stats.RecordView(ctx, id); err != nil {
			s.log.WithError(err).Warn("view stat record failed", zap.String("id", id))
		}
	}
}

// Trending returns the most downloaded wallpapers by recent stat score.
// Entries whose wallpaper has since been deleted are skipped.
func (s *Service) Trending(ctx context.Context, limit int) ([]*Wallpaper, error) {
	if s.stats == nil {
		return nil, nil
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	entries, err := s.stats.Trending(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Wallpaper, 0, len(entries))
	for _, e := range entries {
		w, err := s.wallpapers.ByID(ctx, e.WallpaperID)
		if err != nil {
			if errors.IsType(err, errors.ErrorTypeNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// DeleteWallpaper removes the record, its stored assets, and its stats.
// Asset and stat cleanup are best-effort once the record is gone.
func (s *Service) DeleteWallpaper(ctx context.Context, id string) error {
	w, err := s.wallpapers.Delete(ctx, id)
	if err != nil {
		return err
	}
	backend := s.resolver.Active(ctx)
	ids := []string{w.OriginalAssetID, w.ThumbnailAssetID, w.MediumAssetID}
	for _, r := range w.Resolutions {
		ids = append(ids, r.AssetID)
	}
	for _, assetID := range ids {
		if assetID == "" {
			continue
		}
		if err := backend.Delete(ctx, assetID); err != nil {
			s.log.WithError(err).Warn("asset delete failed",
				zap.String("assetId", assetID), zap.String("backend", backend.Name()))
		}
	}
	if s.stats != nil {
		if err := s.stats.Remove(ctx, w.ID); err != nil {
			s.log.WithError(err).Warn("stat cleanup failed", zap.String("id", w.ID))
		}
	}
	return nil
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory registers a new category, deriving the slug from the name
// when absent.
func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return errors.NewValidation([]string{"name is required"})
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	return s.categories.Create(ctx, c)
}
