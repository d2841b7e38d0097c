package chunker

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Chunk is one embeddable fragment of a knowledge resource. Source is the
// resource name, Key identifies the fragment within it, and together they
// form the upsert key for the vector store.
type Chunk struct {
	Source  string
	Key     string
	Content string
}

// ChunkResource splits a knowledge payload into fragments by its structural
// shape: lists of objects become one chunk per entry, maps of sections one
// chunk per key (recursing one level into nested sections). Scalar payloads
// collapse to a single chunk.
func ChunkResource(name string, payload json.RawMessage) []Chunk {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(payload, &object); err != nil {
		return []Chunk{{
			Source:  name,
			Key:     name,
			Content: header(name, name) + string(payload),
		}}
	}

	var chunks []Chunk
	for _, key := range sortedKeys(object) {
		value := object[key]

		if entries, ok := asObjectList(value); ok {
			for i, entry := range entries {
				entryKey := fmt.Sprintf("%s_%d", key, i)
				if id := entryLabel(entry); id != "" {
					entryKey = fmt.Sprintf("%s_%s", key, id)
				}
				chunks = append(chunks, Chunk{
					Source:  name,
					Key:     entryKey,
					Content: header(name, entryKey) + compact(entry),
				})
			}
			continue
		}

		if sections, ok := asObject(value); ok {
			for _, section := range sortedKeys(sections) {
				sectionKey := key + "." + section
				chunks = append(chunks, Chunk{
					Source:  name,
					Key:     sectionKey,
					Content: header(name, sectionKey) + compact(sections[section]),
				})
			}
			continue
		}

		chunks = append(chunks, Chunk{
			Source:  name,
			Key:     key,
			Content: header(name, key) + compact(value),
		})
	}
	return chunks
}

func header(source, key string) string {
	return fmt.Sprintf("Source: %s, Key: %s\n\n", source, key)
}

func compact(raw json.RawMessage) string {
	return string(raw)
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, false
	}
	return object, true
}

func asObjectList(raw json.RawMessage) ([]json.RawMessage, bool) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return nil, false
	}
	// Only lists of objects chunk per entry; scalar lists stay whole.
	if _, ok := asObject(list[0]); !ok {
		return nil, false
	}
	return list, true
}

// entryLabel picks a stable identifier out of a list entry when it carries
// one of the common id-ish fields.
func entryLabel(raw json.RawMessage) string {
	entry, ok := asObject(raw)
	if !ok {
		return ""
	}
	for _, field := range []string{"id", "key", "term", "code", "name"} {
		value, present := entry[field]
		if !present {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(value, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func sortedKeys(object map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
