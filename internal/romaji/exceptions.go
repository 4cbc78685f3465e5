package romaji

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Exception overrides the romanization of one surface form.
type Exception struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Exceptions maps a morpheme surface to its forced romanization.
type Exceptions map[string]string

// NewExceptions builds an Exceptions table. Later entries win.
func NewExceptions(list []Exception) Exceptions {
	ex := make(Exceptions, len(list))
	for _, e := range list {
		from := strings.TrimSpace(e.From)
		if from == "" {
			continue
		}
		ex[from] = e.To
	}
	return ex
}

// LoadExceptions reads a JSON array of {"from","to"} objects. An empty
// path yields an empty table.
func LoadExceptions(path string) (Exceptions, error) {
	if path == "" {
		return Exceptions{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exceptions: %w", err)
	}
	var list []Exception
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse exceptions %s: %w", path, err)
	}
	return NewExceptions(list), nil
}
