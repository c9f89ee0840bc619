package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// WallpaperResolution is one catalog variant of a wallpaper.
type WallpaperResolution struct {
	ent.Schema
}

func (WallpaperResolution) Mixin() []ent.Mixin {
	return []ent.Mixin{BaseSchema{}}
}

func (WallpaperResolution) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").NotEmpty(),
		field.String("url").NotEmpty(),
		field.String("asset_id").NotEmpty(),
		field.Int("width").Positive(),
		field.Int("height").Positive(),
		field.Int64("byte_size").NonNegative(),
	}
}

func (WallpaperResolution) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("wallpaper", Wallpaper.Type).
			Ref("resolutions").
			Unique().
			Required(),
	}
}
