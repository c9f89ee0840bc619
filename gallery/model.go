// Package gallery is the domain service over the persistence boundary:
// wallpaper curation, browsing, search and usage counters.
package gallery

import "time"

// Wallpaper is the domain representation of one published image and its
// derived assets.
type Wallpaper struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`

	OriginalURL      string `json:"originalUrl"`
	OriginalAssetID  string `json:"-"`
	ThumbnailURL     string `json:"thumbnailUrl"`
	ThumbnailAssetID string `json:"-"`
	MediumURL        string `json:"mediumUrl"`
	MediumAssetID    string `json:"-"`

	PrimaryColor string `json:"primaryColor"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ByteSize     int64  `json:"byteSize"`
	Format       string `json:"format"`
	Status       string `json:"status"`

	DownloadCount int64 `json:"downloadCount"`
	ViewCount     int64 `json:"viewCount"`

	Resolutions []Resolution `json:"resolutions"`
	CategoryIDs []string     `json:"categoryIds,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Resolution is one stored catalog variant of a wallpaper.
type Resolution struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	AssetID  string `json:"-"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	ByteSize int64  `json:"byteSize"`
}

// Category groups wallpapers for browsing.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateInput are the descriptive fields of an upload.
type CreateInput struct {
	Title       string
	Description string
	CategoryIDs []string
}

// ListOptions controls browsing queries.
type ListOptions struct {
	Page       int
	PageSize   int
	CategoryID string
	Status     string
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
	return o
}

// Page is one page of wallpapers plus the total match count.
type Page struct {
	Items    []*Wallpaper `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// TrendingEntry is one wallpaper id with its trending score.
type TrendingEntry struct {
	WallpaperID string  `json:"wallpaperId"`
	Score       float64 `json:"score"`
}
