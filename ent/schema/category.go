package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Category groups wallpapers for browsing.
type Category struct {
	ent.Schema
}

func (Category) Mixin() []ent.Mixin {
	return []ent.Mixin{BaseSchema{}}
}

func (Category) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").NotEmpty().Unique(),
		field.String("slug").NotEmpty().Unique(),
		field.Text("description").Optional(),
	}
}

func (Category) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("wallpapers", Wallpaper.Type).
			Ref("categories"),
	}
}
