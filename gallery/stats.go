package gallery

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/leeforge/gallery/errors"
)

const (
	trendingKey    = "gallery:trending"
	downloadKey    = "gallery:dl:"
	viewKey        = "gallery:view:"
	dailyKeyFmt    = "gallery:dl:day:"
	dayLayout      = "2006-01-02"
	dailyRetention = 90 * 24 * time.Hour
)

// RedisStats keeps download and view counters in Redis. Per-day download
// buckets expire after ninety days; the trending sorted set is permanent
// and pruned on wallpaper deletion.
type RedisStats struct {
	client *redis.Client
}

func NewRedisStats(client *redis.Client) *RedisStats {
	return &RedisStats{client: client}
}

func (s *RedisStats) RecordDownload(ctx context.Context, wallpaperID string) error {
	day := time.Now().Format(dayLayout)
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, downloadKey+wallpaperID)
	pipe.ZIncrBy(ctx, trendingKey, 1, wallpaperID)
	pipe.HIncrBy(ctx, dailyKeyFmt+day, wallpaperID, 1)
	pipe.Expire(ctx, dailyKeyFmt+day, dailyRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "redis download record failed")
	}
	return nil
}

func (s *RedisStats) RecordView(ctx context.Context, wallpaperID string) error {
	if err := s.client.Incr(ctx, viewKey+wallpaperID).Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "redis view record failed")
	}
	return nil
}

func (s *RedisStats) Trending(ctx context.Context, limit int) ([]TrendingEntry, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, trendingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "redis trending query failed")
	}
	out := make([]TrendingEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, TrendingEntry{WallpaperID: id, Score: z.Score})
	}
	return out, nil
}

func (s *RedisStats) Remove(ctx context.Context, wallpaperID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, downloadKey+wallpaperID, viewKey+wallpaperID)
	pipe.ZRem(ctx, trendingKey, wallpaperID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "redis stat cleanup failed")
	}
	return nil
}
