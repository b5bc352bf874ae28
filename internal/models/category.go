package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	DisplayName  string             `bson:"display_name" json:"displayName"`
	ImageURL     string             `bson:"image_url" json:"imageUrl"`
	ImageAssetID string             `bson:"image_asset_id" json:"imageAssetId"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

func (c *Category) BeforeCreate() error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CategoryRef is the category of a venue: either a free-text label or a
// reference to a Category document. In BSON it is stored as a plain string or
// an ObjectID, so documents written with either form decode into it.
//
// Name is filled in at read time for references and is never persisted.
type CategoryRef struct {
	Label string
	ID    primitive.ObjectID
	Name  string
}

func CategoryLabel(label string) CategoryRef {
	return CategoryRef{Label: label}
}

func CategoryReference(id primitive.ObjectID) CategoryRef {
	return CategoryRef{ID: id}
}

func (c CategoryRef) IsReference() bool {
	return !c.ID.IsZero()
}

func (c CategoryRef) IsZero() bool {
	return c.Label == "" && c.ID.IsZero()
}

// Key is the category name the venue is listed under: the label itself, or
// the resolved name of the referenced category.
func (c CategoryRef) Key() string {
	if c.IsReference() {
		return c.Name
	}
	return c.Label
}

func (c CategoryRef) String() string {
	if c.IsReference() {
		if c.Name != "" {
			return c.Name
		}
		return c.ID.Hex()
	}
	return c.Label
}

func (c CategoryRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case c.IsReference():
		return bson.MarshalValue(c.ID)
	case c.Label != "":
		return bson.MarshalValue(c.Label)
	default:
		return bsontype.Null, nil, nil
	}
}

func (c *CategoryRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		label, ok := raw.StringValueOK()
		if !ok {
			return fmt.Errorf("invalid category label")
		}
		*c = CategoryLabel(label)
	case bsontype.ObjectID:
		id, ok := raw.ObjectIDOK()
		if !ok {
			return fmt.Errorf("invalid category reference")
		}
		*c = CategoryReference(id)
	case bsontype.Null, bsontype.Undefined:
		*c = CategoryRef{}
	default:
		return fmt.Errorf("cannot decode %s into category", t)
	}
	return nil
}

type categoryRefJSON struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	switch {
	case c.IsReference():
		return json.Marshal(categoryRefJSON{ID: c.ID.Hex(), Name: c.Name})
	case c.Label != "":
		return json.Marshal(c.Label)
	default:
		return []byte("null"), nil
	}
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = CategoryRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*c = CategoryLabel(label)
		return nil
	}

	var ref categoryRefJSON
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("category must be a label or {\"id\": ...}: %w", err)
	}
	id, err := primitive.ObjectIDFromHex(ref.ID)
	if err != nil {
		return fmt.Errorf("invalid category id %q: %w", ref.ID, err)
	}
	*c = CategoryRef{ID: id, Name: ref.Name}
	return nil
}
