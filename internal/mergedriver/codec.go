package mergedriver

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document codec.
type Format int

const (
	// FormatAuto tries JSON first and falls back to YAML.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// FormatForPath picks the codec from the file extension.
func FormatForPath(path string) Format {
	lowered := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lowered, ".json"):
		return FormatJSON
	case strings.HasSuffix(lowered, ".yaml"), strings.HasSuffix(lowered, ".yml"):
		return FormatYAML
	default:
		return FormatAuto
	}
}

// MergeDocuments decodes the three sides, merges them, and encodes the
// result in the same format.
func MergeDocuments(base, ours, theirs Document, format Format) (string, error) {
	decodedFormat := format

	decode := func(doc Document) (any, error) {
		if !doc.Present {
			return nil, nil
		}
		value, actual, err := decodeDocument(doc.Content, format)
		if err != nil {
			return nil, err
		}
		if decodedFormat == FormatAuto {
			decodedFormat = actual
		}
		return value, nil
	}

	baseVal, err := decode(base)
	if err != nil {
		return "", err
	}
	oursVal, err := decode(ours)
	if err != nil {
		return "", err
	}
	theirsVal, err := decode(theirs)
	if err != nil {
		return "", err
	}

	merged, err := Merge(baseVal, oursVal, theirsVal, base.Present)
	if err != nil {
		return "", err
	}

	return encodeDocument(merged, decodedFormat)
}

// MergeFiles merges oursPath in place, the calling convention git expects
// from a merge driver (%O %A %B). Returns a MergeError when the documents
// conflict structurally.
func MergeFiles(basePath, oursPath, theirsPath string) error {
	read := func(path string) (Document, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return Document{}, nil
			}
			return Document{}, err
		}
		return Document{Content: string(data), Present: true}, nil
	}

	base, err := read(basePath)
	if err != nil {
		return err
	}
	ours, err := read(oursPath)
	if err != nil {
		return err
	}
	theirs, err := read(theirsPath)
	if err != nil {
		return err
	}

	merged, err := MergeDocuments(base, ours, theirs, FormatForPath(oursPath))
	if err != nil {
		return err
	}
	return os.WriteFile(oursPath, []byte(merged), 0o644)
}

func decodeDocument(content string, format Format) (any, Format, error) {
	switch format {
	case FormatJSON:
		var value any
		if err := json.Unmarshal([]byte(content), &value); err != nil {
			return nil, format, &MergeError{Detail: "invalid JSON document: " + err.Error()}
		}
		return value, FormatJSON, nil
	case FormatYAML:
		var value any
		if err := yaml.Unmarshal([]byte(content), &value); err != nil {
			return nil, format, &MergeError{Detail: "invalid YAML document: " + err.Error()}
		}
		return value, FormatYAML, nil
	default:
		var value any
		if err := json.Unmarshal([]byte(content), &value); err == nil {
			return value, FormatJSON, nil
		}
		if err := yaml.Unmarshal([]byte(content), &value); err != nil {
			return nil, format, &MergeError{Detail: "document is neither JSON nor YAML: " + err.Error()}
		}
		return value, FormatYAML, nil
	}
}

func encodeDocument(value any, format Format) (string, error) {
	if format == FormatYAML {
		out, err := yaml.Marshal(normalize(value))
		if err != nil {
			return "", &MergeError{Detail: "failed to encode YAML: " + err.Error()}
		}
		return string(out), nil
	}
	out, err := json.MarshalIndent(normalize(value), "", "  ")
	if err != nil {
		return "", &MergeError{Detail: "failed to encode JSON: " + err.Error()}
	}
	return string(out) + "\n", nil
}
