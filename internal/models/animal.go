package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrSchema is returned when a document violates the animal schema.
var ErrSchema = errors.New("document violates animal schema")

// Age bounds for shelter animals. Values outside this range are assumed to
// be data-entry errors.
const (
	MinAge = 0
	MaxAge = 50
)

// GeoPoint is a GeoJSON point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// Validate checks the GeoJSON type tag and coordinate ranges.
func (p GeoPoint) Validate() error {
	if p.Type != "Point" {
		return fmt.Errorf("%w: location type must be \"Point\", got %q", ErrSchema, p.Type)
	}
	lon, lat := p.Coordinates[0], p.Coordinates[1]
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: invalid lon/lat range (%v, %v)", ErrSchema, lon, lat)
	}
	return nil
}

// Animal models one shelter record. All attributes are optional so the
// schema never breaks existing CSV-backed data loads; fields the schema does
// not recognize are carried in Extra verbatim. Datasets use either "species"
// or "type", so both are kept.
//
// Document is the single serialization path to the persisted shape: the
// repository reads and writes bson.M documents, so the bson/json tags here
// document the wire names for callers that decode results into the typed
// struct rather than drive marshalling inside this package.
type Animal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name       string             `bson:"name,omitempty" json:"name,omitempty"`
	Species    string             `bson:"species,omitempty" json:"species,omitempty"`
	Type       string             `bson:"type,omitempty" json:"type,omitempty"`
	Breed      string             `bson:"breed,omitempty" json:"breed,omitempty"`
	Age        *int               `bson:"age,omitempty" json:"age,omitempty"`
	Adopted    *bool              `bson:"adopted,omitempty" json:"adopted,omitempty"`
	IntakeDate *time.Time         `bson:"intake_date,omitempty" json:"intake_date,omitempty"`
	City       string             `bson:"city,omitempty" json:"city,omitempty"`
	State      string             `bson:"state,omitempty" json:"state,omitempty"`
	Location   *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`

	Extra bson.M `bson:",inline" json:"-"`
}

// knownFields are the attribute names the schema recognizes; anything else
// lands in Extra.
var knownFields = map[string]struct{}{
	"name": {}, "species": {}, "type": {}, "breed": {}, "age": {},
	"adopted": {}, "intake_date": {}, "city": {}, "state": {}, "location": {},
}

// NewAnimal validates and coerces a raw document into a typed Animal.
// Known fields get type and bounds checks; unrecognized fields are carried
// in Extra unchanged (open schema). The input map is not mutated.
func NewAnimal(raw bson.M) (*Animal, error) {
	a := &Animal{Extra: bson.M{}}

	for field, value := range raw {
		if _, known := knownFields[field]; !known && field != "_id" {
			a.Extra[field] = value
		}
	}
	if id, ok := raw["_id"].(primitive.ObjectID); ok {
		a.ID = id
	}

	var err error
	if a.Name, err = stringField(raw, "name"); err != nil {
		return nil, err
	}
	if a.Species, err = stringField(raw, "species"); err != nil {
		return nil, err
	}
	if a.Type, err = stringField(raw, "type"); err != nil {
		return nil, err
	}
	if a.Breed, err = stringField(raw, "breed"); err != nil {
		return nil, err
	}
	if a.City, err = stringField(raw, "city"); err != nil {
		return nil, err
	}
	if a.State, err = stringField(raw, "state"); err != nil {
		return nil, err
	}

	if v, ok := raw["age"]; ok && v != nil {
		age, err := coerceInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: age: %v", ErrSchema, err)
		}
		if age < MinAge || age > MaxAge {
			return nil, fmt.Errorf("%w: age %d outside [%d, %d]", ErrSchema, age, MinAge, MaxAge)
		}
		a.Age = &age
	}

	if v, ok := raw["adopted"]; ok && v != nil {
		adopted, isBool := v.(bool)
		if !isBool {
			return nil, fmt.Errorf("%w: adopted must be a boolean, got %T", ErrSchema, v)
		}
		a.Adopted = &adopted
	}

	if v, ok := raw["intake_date"]; ok && v != nil {
		t, err := coerceDate(v)
		if err != nil {
			return nil, fmt.Errorf("%w: intake_date: %v", ErrSchema, err)
		}
		a.IntakeDate = &t
	}

	if v, ok := raw["location"]; ok && v != nil {
		point, err := coerceGeoPoint(v)
		if err != nil {
			return nil, err
		}
		if err := point.Validate(); err != nil {
			return nil, err
		}
		a.Location = &point
	}

	return a, nil
}

// Document merges the typed fields and the Extra side map back into the
// document shape the store persists.
func (a *Animal) Document() bson.M {
	doc := make(bson.M, len(a.Extra)+10)
	for k, v := range a.Extra {
		doc[k] = v
	}
	if !a.ID.IsZero() {
		doc["_id"] = a.ID
	}
	if a.Name != "" {
		doc["name"] = a.Name
	}
	if a.Species != "" {
		doc["species"] = a.Species
	}
	if a.Type != "" {
		doc["type"] = a.Type
	}
	if a.Breed != "" {
		doc["breed"] = a.Breed
	}
	if a.Age != nil {
		doc["age"] = *a.Age
	}
	if a.Adopted != nil {
		doc["adopted"] = *a.Adopted
	}
	if a.IntakeDate != nil {
		doc["intake_date"] = *a.IntakeDate
	}
	if a.City != "" {
		doc["city"] = a.City
	}
	if a.State != "" {
		doc["state"] = a.State
	}
	if a.Location != nil {
		doc["location"] = *a.Location
	}
	return doc
}

// Normalize validates and coerces a raw document against the animal schema
// and returns the persistable document shape.
func Normalize(raw bson.M) (bson.M, error) {
	animal, err := NewAnimal(raw)
	if err != nil {
		return nil, err
	}
	return animal.Document(), nil
}

func stringField(raw bson.M, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrSchema, field, v)
	}
	return s, nil
}

// coerceInt accepts the numeric types BSON/JSON decoding produces, plus
// numeric strings from CSV imports.
func coerceInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// coerceDate accepts time values or date strings (both RFC 3339 timestamps
// and plain YYYY-MM-DD dates).
func coerceDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case primitive.DateTime:
		return d.Time(), nil
	case string:
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%q is not a valid date", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

// coerceGeoPoint accepts a GeoPoint value or the map/array shape a JSON or
// BSON decode of one produces.
func coerceGeoPoint(v interface{}) (GeoPoint, error) {
	switch p := v.(type) {
	case GeoPoint:
		return p, nil
	case *GeoPoint:
		return *p, nil
	case bson.M:
		return geoPointFromMap(p)
	case map[string]interface{}:
		return geoPointFromMap(p)
	default:
		return GeoPoint{}, fmt.Errorf("%w: location must be a GeoJSON point, got %T", ErrSchema, v)
	}
}

func geoPointFromMap(m map[string]interface{}) (GeoPoint, error) {
	point := GeoPoint{}
	if t, ok := m["type"].(string); ok {
		point.Type = t
	}
	coords, ok := m["coordinates"]
	if !ok {
		return GeoPoint{}, fmt.Errorf("%w: location is missing coordinates", ErrSchema)
	}
	values, err := coerceFloatPair(coords)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: location coordinates: %v", ErrSchema, err)
	}
	point.Coordinates = values
	return point, nil
}

func coerceFloatPair(v interface{}) ([2]float64, error) {
	var out [2]float64
	var items []interface{}
	switch c := v.(type) {
	case []interface{}:
		items = c
	case bson.A:
		items = c
	case []float64:
		if len(c) != 2 {
			return out, fmt.Errorf("need exactly 2 values, got %d", len(c))
		}
		return [2]float64{c[0], c[1]}, nil
	case [2]float64:
		return c, nil
	default:
		return out, fmt.Errorf("unsupported type %T", v)
	}
	if len(items) != 2 {
		return out, fmt.Errorf("need exactly 2 values, got %d", len(items))
	}
	for i, item := range items {
		switch n := item.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		case int32:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		default:
			return out, fmt.Errorf("coordinate %d has unsupported type %T", i, item)
		}
	}
	return out, nil
}
