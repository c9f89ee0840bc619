package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// DownloadStat is a per-day download counter bucket for a wallpaper.
type DownloadStat struct {
	ent.Schema
}

func (DownloadStat) Mixin() []ent.Mixin {
	return []ent.Mixin{BaseSchema{}}
}

func (DownloadStat) Fields() []ent.Field {
	return []ent.Field{
		field.String("day").
			NotEmpty().
			Comment("UTC day bucket, formatted 2006-01-02"),
		field.Int64("count").Default(0).NonNegative(),
	}
}

func (DownloadStat) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("wallpaper", Wallpaper.Type).
			Unique().
			Required(),
	}
}

func (DownloadStat) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("day"),
	}
}
