package persist

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/models"
)

// ParseImport accepts three layouts:
//   - a full envelope {"state": {...}, "version": 0}
//   - a bare state {"sessions": [...], ...}
//   - a browser localStorage dump whose "chat-store" entry holds the
//     envelope as a JSON string
func ParseImport(data []byte) (*models.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("import file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("import file must contain a JSON object")
	}

	if root.Get("state").Exists() {
		return Decode(data)
	}
	if root.Get("sessions").IsArray() {
		return decodeState(data)
	}

	entry := root.Get(config.DefaultStorageKey)
	switch {
	case entry.Type == gjson.String:
		return ParseImport([]byte(entry.String()))
	case entry.IsObject():
		return ParseImport([]byte(entry.Raw))
	}

	return nil, fmt.Errorf("no chat sessions found in import file")
}
