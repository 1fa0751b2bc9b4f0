package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"auenbot/internal/domain"
)

// fieldAliases maps recognized source field names to their canonical label.
// Applied once at load time so the rest of the system only sees canonical keys.
var fieldAliases = map[string]string{
	"name": "Name",
	"Name": "Name",
	"typ":  "Typ",
	"Typ":  "Typ",
}

// Load reads the knowledge records and the two attribute-label vocabularies
// from JSON files and builds the index. Records without a name or type are
// dropped, not fatal.
func Load(entriesPath, animalKeysPath, plantKeysPath string, log *slog.Logger) (*Index, error) {
	data, err := os.ReadFile(entriesPath)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	entries, dropped, err := ParseEntries(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	if dropped > 0 && log != nil {
		log.Debug("skipped incomplete knowledge records", slog.Int("count", dropped))
	}

	animalKeys, err := loadStringList(animalKeysPath)
	if err != nil {
		return nil, fmt.Errorf("load animal keys: %w", err)
	}
	plantKeys, err := loadStringList(plantKeysPath)
	if err != nil {
		return nil, fmt.Errorf("load plant keys: %w", err)
	}

	if log != nil {
		log.Info("knowledge base loaded",
			slog.Int("entries", len(entries)),
			slog.Int("animal_keys", len(animalKeys)),
			slog.Int("plant_keys", len(plantKeys)),
		)
	}
	return NewIndex(entries, animalKeys, plantKeys), nil
}

// ParseEntries decodes a JSON array of records into entries, preserving the
// field order of each source object. Returns the number of dropped records.
func ParseEntries(r io.Reader) ([]*domain.Entry, int, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '['); err != nil {
		return nil, 0, err
	}
	var entries []*domain.Entry
	dropped := 0
	for dec.More() {
		keys, attrs, err := decodeOrderedObject(dec)
		if err != nil {
			return nil, 0, err
		}
		e := &domain.Entry{
			Name:       attrs["Name"],
			Typ:        attrs["Typ"],
			Attributes: attrs,
			Keys:       keys,
		}
		if e.Name == "" || e.Typ == "" {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, 0, err
	}
	return entries, dropped, nil
}

// decodeOrderedObject reads one JSON object via the token stream so that key
// order survives decoding. Non-string values are skipped. Recognized field
// aliases are canonicalized; the first occurrence of a canonical key wins.
func decodeOrderedObject(dec *json.Decoder) ([]string, map[string]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}
	var keys []string
	attrs := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key token %v", tok)
		}
		if canonical, ok := fieldAliases[key]; ok {
			key = canonical
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if _, exists := attrs[key]; exists {
			continue
		}
		attrs[key] = value
		keys = append(keys, key)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return keys, attrs, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func loadStringList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
