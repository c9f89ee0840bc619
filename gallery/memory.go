package gallery

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/utils"
)

// MemoryStore is an in-memory WallpaperStore and CategoryStore. It backs
// tests and the zero-dependency local mode.
type MemoryStore struct {
	mu         sync.RWMutex
	wallpapers map[string]*Wallpaper
	bySlug     map[string]string
	categories map[string]*Category
	catBySlug  map[string]string
	order      []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallpapers: make(map[string]*Wallpaper),
		bySlug:     make(map[string]string),
		categories: make(map[string]*Category),
		catBySlug:  make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, w *Wallpaper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if _, ok := s.bySlug[w.Slug]; ok {
		return errors.New(errors.ErrorTypeConflict, "wallpaper slug already exists")
	}
	for _, cid := range w.CategoryIDs {
		if _, ok := s.categories[cid]; !ok {
			return errors.NewNotFound("category", cid)
		}
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	cp := *w
	s.wallpapers[w.ID] = &cp
	s.bySlug[w.Slug] = w.ID
	s.order = append(s.order, w.ID)
	return nil
}

func (s *MemoryStore) BySlug(_ context.Context, slug string) (*Wallpaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return nil, errors.NewNotFound("wallpaper", slug)
	}
	cp := *s.wallpapers[id]
	return &cp, nil
}

func (s *MemoryStore) ByID(_ context.Context, id string) (*Wallpaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallpapers[id]
	if !ok {
		return nil, errors.NewNotFound("wallpaper", id)
	}
	cp := *w
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) (*Page, error) {
	opts = opts.normalized()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.filter(opts, ""), opts), nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts ListOptions) (*Page, error) {
	opts = opts.normalized()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.filter(opts, strings.ToLower(strings.TrimSpace(query))), opts), nil
}

// filter walks insertion order newest first. Callers hold the lock.
func (s *MemoryStore) filter(opts ListOptions, query string) []*Wallpaper {
	matched := make([]*Wallpaper, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		w := s.wallpapers[s.order[i]]
		if opts.Status != "" && w.Status != opts.Status {
			continue
		}
		if opts.CategoryID != "" && !contains(w.CategoryIDs, opts.CategoryID) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(w.Title), query) &&
			!strings.Contains(strings.ToLower(w.Description), query) {
			continue
		}
		matched = append(matched, w)
	}
	return matched
}

func (s *MemoryStore) page(matched []*Wallpaper, opts ListOptions) *Page {
	total := int64(len(matched))
	start := (opts.Page - 1) * opts.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	items := make([]*Wallpaper, 0, end-start)
	for _, w := range matched[start:end] {
		cp := *w
		items = append(items, &cp)
	}
	return &Page{Items: items, Total: total, Page: opts.Page, PageSize: opts.PageSize}
}

func (s *MemoryStore) IncrementDownload(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallpapers[id]
	if !ok {
		return errors.NewNotFound("wallpaper", id)
	}
	w.DownloadCount++
	return nil
}

func (s *MemoryStore) IncrementView(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallpapers[id]
	if !ok {
		return errors.NewNotFound("wallpaper", id)
	}
	w.ViewCount++
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (*Wallpaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallpapers[id]
	if !ok {
		return nil, errors.NewNotFound("wallpaper", id)
	}
	delete(s.wallpapers, id)
	delete(s.bySlug, w.Slug)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return w, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Name)
	}
	if _, ok := s.catBySlug[c.Slug]; ok {
		return errors.New(errors.ErrorTypeConflict, "category slug already exists")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	s.categories[c.ID] = &cp
	s.catBySlug[c.Slug] = c.ID
	return nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CategoryBySlug(_ context.Context, slug string) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.catBySlug[slug]
	if !ok {
		return nil, errors.NewNotFound("category", slug)
	}
	cp := *s.categories[id]
	return &cp, nil
}

// Categories adapts the store to the CategoryStore interface.
func (s *MemoryStore) Categories() CategoryStore { return memoryCategories{s} }

type memoryCategories struct{ s *MemoryStore }

func (m memoryCategories) Create(ctx context.Context, c *Category) error {
	return m.s.CreateCategory(ctx, c)
}

func (m memoryCategories) List(ctx context.Context) ([]*Category, error) {
	return m.s.ListCategories(ctx)
}

func (m memoryCategories) BySlug(ctx context.Context, slug string) (*Category, error) {
	return m.s.CategoryBySlug(ctx, slug)
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
