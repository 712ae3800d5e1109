package models

import "go.mongodb.org/mongo-driver/bson"

// JSONSchema returns the $jsonSchema document installed on the animals
// collection. The schema stays open: extra fields are allowed (no
// additionalProperties restriction) so unmapped CSV columns keep loading.
func JSONSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"properties": bson.M{
			"name":        bson.M{"bsonType": bson.A{"string", "null"}},
			"species":     bson.M{"bsonType": bson.A{"string", "null"}},
			"type":        bson.M{"bsonType": bson.A{"string", "null"}},
			"breed":       bson.M{"bsonType": bson.A{"string", "null"}},
			"adopted":     bson.M{"bsonType": bson.A{"bool", "null"}},
			"intake_date": bson.M{"bsonType": bson.A{"date", "string", "null"}},
			"age": bson.M{
				"bsonType": bson.A{"int", "long", "double", "null"},
				"minimum":  MinAge,
				"maximum":  MaxAge,
			},
			"city":  bson.M{"bsonType": bson.A{"string", "null"}},
			"state": bson.M{"bsonType": bson.A{"string", "null"}},
			"location": bson.M{
				"bsonType": bson.A{"object", "null"},
				"required": bson.A{"type", "coordinates"},
				"properties": bson.M{
					"type": bson.M{"enum": bson.A{"Point"}},
					"coordinates": bson.M{
						"bsonType": "array",
						"items":    bson.A{bson.M{"bsonType": "double"}, bson.M{"bsonType": "double"}},
						"minItems": 2,
						"maxItems": 2,
					},
				},
			},
		},
	}
}
