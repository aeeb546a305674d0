package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// JSONFile is the on-disk overlay format. Entries extend or replace the
// built-in table, which lets deployments name vendor-specific fields
// without a rebuild.
type JSONFile struct {
	Messages []JSONMessageEntry `json:"messages"`
	Fields   []JSONFieldEntry   `json:"fields"`
}

type JSONMessageEntry struct {
	Mesg int    `json:"mesg"`
	Name string `json:"name"`
}

type JSONFieldEntry struct {
	Mesg   int     `json:"mesg"`
	Field  int     `json:"field"`
	Name   string  `json:"name"`
	Unit   string  `json:"unit,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Offset float64 `json:"offset,omitempty"`
}

// FromJSON layers the overlay entries over the built-in table.
func FromJSON(file JSONFile) (*Store, error) {
	store := Builtin()
	for i, entry := range file.Messages {
		if entry.Mesg < 0 || entry.Mesg > 0xFFFF {
			return nil, fmt.Errorf("messages[%d]: mesg out of range", i)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("messages[%d]: empty name", i)
		}
		store.mesgNames[uint16(entry.Mesg)] = name
	}
	for i, entry := range file.Fields {
		if entry.Mesg < 0 || entry.Mesg > 0xFFFF {
			return nil, fmt.Errorf("fields[%d]: mesg out of range", i)
		}
		if entry.Field < 0 || entry.Field > 0xFF {
			return nil, fmt.Errorf("fields[%d]: field out of range", i)
		}
		if entry.Scale < 0 {
			return nil, fmt.Errorf("fields[%d]: negative scale", i)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("fields[%d]: empty name", i)
		}
		store.put(uint16(entry.Mesg), uint8(entry.Field), FieldSpec{
			Name:   name,
			Unit:   strings.TrimSpace(entry.Unit),
			Scale:  entry.Scale,
			Offset: entry.Offset,
		})
	}
	return store, nil
}

// Load reads an overlay file and returns the combined store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file JSONFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return FromJSON(file)
}

// EnsureLoaded validates the path before loading, distinguishing a
// missing overlay from a malformed one.
func EnsureLoaded(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty profile overlay path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("profile overlay path %s is a directory", path)
	}
	return Load(path)
}
