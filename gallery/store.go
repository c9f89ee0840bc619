package gallery

import "context"

// WallpaperStore is the persistence boundary for wallpapers. Create must
// persist the wallpaper together with its resolutions and category links
// atomically.
type WallpaperStore interface {
	Create(ctx context.Context, w *Wallpaper) error
	BySlug(ctx context.Context, slug string) (*Wallpaper, error)
	ByID(ctx context.Context, id string) (*Wallpaper, error)
	List(ctx context.Context, opts ListOptions) (*Page, error)
	Search(ctx context.Context, query string, opts ListOptions) (*Page, error)
	IncrementDownload(ctx context.Context, id string) error
	IncrementView(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (*Wallpaper, error)
}

// CategoryStore is the persistence boundary for categories.
type CategoryStore interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]*Category, error)
	BySlug(ctx context.Context, slug string) (*Category, error)
}

// StatsStore keeps usage counters outside the primary store so hot
// increments never contend with catalog writes.
type StatsStore interface {
	RecordDownload(ctx context.Context, wallpaperID string) error
	RecordView(ctx context.Context, wallpaperID string) error
	Trending(ctx context.Context, limit int) ([]TrendingEntry, error)
	Remove(ctx context.Context, wallpaperID string) error
}
