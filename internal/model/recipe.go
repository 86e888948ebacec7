package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONBStringArray: %T", value)
	}

	return json.Unmarshal(bytes, a)
}

// EmbeddingDimensions is the length of Recipe.Embedding
const EmbeddingDimensions = 3

// Recipe is a generated meal that was saved from the draft cache.
type Recipe struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
	Name                string           `gorm:"size:255;not null" json:"name"`
	Description         string           `gorm:"type:text" json:"description"`
	ImageURL            string           `gorm:"size:1024" json:"image_url"`
	OriginalIngredients JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"original_ingredients"`
	Ingredients         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Equipment           JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"equipment"`
	Instructions        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	ServingSuggestions  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"serving_suggestions"`
	Calories            int              `json:"calories"`
	Protein             string           `gorm:"size:50" json:"protein"`
	Carbs               string           `gorm:"size:50" json:"carbs"`
	Fat                 string           `gorm:"size:50" json:"fat"`
	ContentShape        string           `gorm:"size:32" json:"content_shape"`
	Embedding           pgvector.Vector  `gorm:"type:vector(3)" json:"-"`
}

// BeforeCreate assigns an ID so inserts work on databases without gen_random_uuid
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
