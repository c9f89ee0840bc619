package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// StorageConfig is one persisted storage backend configuration row; the
// selector reads the most recent, highest-priority active record.
type StorageConfig struct {
	ent.Schema
}

func (StorageConfig) Mixin() []ent.Mixin {
	return []ent.Mixin{BaseSchema{}}
}

func (StorageConfig) Fields() []ent.Field {
	return []ent.Field{
		field.String("provider_name").NotEmpty(),
		field.Bool("is_active").Default(false),
		field.Int("priority").Default(0),
		field.JSON("settings", map[string]any{}).Optional(),
	}
}

func (StorageConfig) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("is_active", "priority"),
	}
}
