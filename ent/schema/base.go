package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
	"github.com/google/uuid"
)

// BaseSchema is the mixin shared by every entity: UUIDv7 identity plus
// lifecycle timestamps.
type BaseSchema struct {
	mixin.Schema
}

func (BaseSchema) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(func() uuid.UUID {
				v7, err := uuid.NewV7()
				if err != nil {
					panic("failed to create UUID v7: " + err.Error())
				}
				return v7
			}).
			SchemaType(map[string]string{
				dialect.Postgres: "uuid",
				dialect.MySQL:    "char(36)",
				dialect.SQLite:   "text",
			}).
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("deleted_at").
			Optional(),
	}
}

func (BaseSchema) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
		index.Fields("deleted_at"),
	}
}
