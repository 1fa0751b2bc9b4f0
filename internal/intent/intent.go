// Package intent recognizes conversational intents (greetings, thanks,
// farewells) by nearest-neighbor similarity over precomputed example
// embeddings.
package intent

import (
	"encoding/json"
	"sort"
)

// Example is one (intent, canned reply, example phrase) triple. Several
// examples usually share one intent and reply.
type Example struct {
	Intent  string
	Reply   string
	Example string
}

// taskPayload mirrors one group in the task-list JSON: an intent label, its
// canned reply and a list of paraphrase examples.
type taskPayload struct {
	Intent string   `json:"intent"`
	Utter  string   `json:"utter"`
	Text   []string `json:"text"`
}

// ParseTaskList flattens grouped task-list records into one row per example
// phrase. Groups missing an intent, reply or examples are skipped silently.
// Row order is deterministic: source order of groups, sorted identifiers
// within a group, source order of phrases.
func ParseTaskList(raw []byte) ([]Example, error) {
	var groups []map[string]taskPayload
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}
	var rows []Example
	for _, group := range groups {
		ids := make([]string, 0, len(group))
		for id := range group {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			payload := group[id]
			if payload.Intent == "" || payload.Utter == "" || len(payload.Text) == 0 {
				continue
			}
			for _, ex := range payload.Text {
				rows = append(rows, Example{
					Intent:  payload.Intent,
					Reply:   payload.Utter,
					Example: ex,
				})
			}
		}
	}
	return rows, nil
}

// Texts returns the example phrases of all rows, in row order.
func Texts(rows []Example) []string {
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Example
	}
	return texts
}
