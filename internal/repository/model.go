package repository

import (
	"encoding/json"
	"reflect"
)

// Metadata holds versioning info for optimistic locking.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// DataDocument represents the persisted JSON structure of the lesson catalog.
type DataDocument struct {
	Metadata Metadata `json:"metadata"`
	Lessons  []Lesson `json:"lessons" validate:"dive"`
	Order    []string `json:"order"`
}

// Lesson models a single lesson entry. HomeworkText may legitimately be
// empty; an empty string is a normal value, not a missing one.
type Lesson struct {
	ID           string `json:"id" validate:"required"`
	OwnerID      string `json:"owner_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	HomeworkText string `json:"homework_text"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// ApplyDefaults sets fallback values after decode.
func (d *DataDocument) ApplyDefaults() {
	if d.Lessons == nil {
		d.Lessons = []Lesson{}
	}
	if d.Order == nil {
		d.Order = []string{}
	}
}

// AreDataDocumentsEqual compares two DataDocuments ignoring Metadata.
// Uses JSON serialization for flexible comparison (order-independent for object keys).
func AreDataDocumentsEqual(a, b *DataDocument) bool {
	if a == nil || b == nil {
		return a == b
	}

	// Marshal both to JSON
	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	// Unmarshal to generic maps
	var aMap, bMap map[string]interface{}
	if err := json.Unmarshal(aBytes, &aMap); err != nil {
		return false
	}
	if err := json.Unmarshal(bBytes, &bMap); err != nil {
		return false
	}

	// Remove metadata from comparison
	delete(aMap, "metadata")
	delete(bMap, "metadata")

	return reflect.DeepEqual(aMap, bMap)
}
