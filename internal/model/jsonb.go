package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ChecklistItem is one entry of an ordered checklist attached to a service
// order or a delivery.
type ChecklistItem struct {
	Item      string `json:"item"`
	Completed bool   `json:"completed"`
}

// Checklist is stored as a jsonb column.
type Checklist []ChecklistItem

func (c Checklist) Value() (driver.Value, error) {
	if c == nil {
		c = Checklist{}
	}
	return json.Marshal(c)
}

func (c *Checklist) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return fmt.Errorf("cannot scan %T into Checklist", value)
}

// AllCompleted reports whether every item is checked. An empty checklist
// counts as complete.
func (c Checklist) AllCompleted() bool {
	for _, item := range c {
		if !item.Completed {
			return false
		}
	}
	return true
}

// StringList is a jsonb-stored list of opaque strings (file references).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into StringList", value)
}
