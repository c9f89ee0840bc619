package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Wallpaper is one published image with its derived assets.
type Wallpaper struct {
	ent.Schema
}

func (Wallpaper) Mixin() []ent.Mixin {
	return []ent.Mixin{BaseSchema{}}
}

func (Wallpaper) Fields() []ent.Field {
	return []ent.Field{
		field.String("title").NotEmpty(),
		field.String("slug").NotEmpty().Unique(),
		field.Text("description").Optional(),
		field.String("original_url").NotEmpty(),
		field.String("original_asset_id").NotEmpty(),
		field.String("thumbnail_url").NotEmpty(),
		field.String("thumbnail_asset_id").NotEmpty(),
		field.String("medium_url").NotEmpty(),
		field.String("medium_asset_id").NotEmpty(),
		field.String("primary_color").
			Default("#000000").
			MaxLen(7),
		field.Int("width").Positive(),
		field.Int("height").Positive(),
		field.Int64("byte_size").NonNegative(),
		field.String("format").NotEmpty(),
		field.Enum("status").
			Values("draft", "published", "archived").
			Default("published"),
		field.Int64("download_count").Default(0).NonNegative(),
		field.Int64("view_count").Default(0).NonNegative(),
	}
}

func (Wallpaper) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("resolutions", WallpaperResolution.Type),
		edge.To("categories", Category.Type),
	}
}

func (Wallpaper) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("slug"),
		index.Fields("status"),
		index.Fields("download_count"),
	}
}
