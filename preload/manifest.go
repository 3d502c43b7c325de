// Package preload fetches the assets named in a manifest before the
// application is set up, reporting progress as entries settle.
package preload

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Kind classifies a manifest entry.
type Kind string

const (
	KindText      Kind = "t"
	KindImage     Kind = "i"
	KindBinary    Kind = "b"
	KindAudio     Kind = "a"
	KindDirectory Kind = "d"
)

// Entry is one asset named by a manifest. Path identifies it.
type Entry struct {
	Kind Kind   `toml:"kind"`
	Path string `toml:"path"`
	Size int64  `toml:"size"`
	MIME string `toml:"mime"`
}

// Asset is a fetched entry.
type Asset struct {
	Entry Entry
	Data  []byte
	MIME  string
}

type tomlManifest struct {
	Assets []Entry `toml:"asset"`
}

// ParseManifest decodes a manifest. References ending in ".toml" are decoded
// as TOML ([[asset]] tables); anything else uses the line format
// "kind:path:size:mime", one entry per line, with blank lines and lines
// starting with '#' skipped.
func ParseManifest(ref string, data []byte) ([]Entry, error) {
	if strings.HasSuffix(strings.ToLower(ref), ".toml") {
		var m tomlManifest
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", ref, err)
		}
		for i := range m.Assets {
			if m.Assets[i].Path == "" {
				return nil, fmt.Errorf("manifest %s: asset %d has no path", ref, i)
			}
			if m.Assets[i].Kind == "" {
				m.Assets[i].Kind = KindBinary
			}
		}
		return m.Assets, nil
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		entry, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("manifest %s line %d: %w", ref, line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", ref, err)
	}
	return entries, nil
}

func parseLine(text string) (Entry, error) {
	fields := strings.Split(text, ":")
	if len(fields) < 2 || fields[1] == "" {
		return Entry{}, fmt.Errorf("malformed entry %q", text)
	}

	entry := Entry{Kind: Kind(fields[0]), Path: fields[1]}
	switch entry.Kind {
	case KindText, KindImage, KindBinary, KindAudio, KindDirectory:
	default:
		return Entry{}, fmt.Errorf("unknown asset kind %q", fields[0])
	}
	if len(fields) > 2 && fields[2] != "" {
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("bad size in %q: %w", text, err)
		}
		entry.Size = size
	}
	if len(fields) > 3 {
		entry.MIME = fields[3]
	}
	return entry, nil
}

// FormatManifest writes entries in the line format read by ParseManifest.
func FormatManifest(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s:%s:%d:%s\n", e.Kind, e.Path, e.Size, e.MIME)
	}
	return buf.Bytes()
}

// KindForMIME guesses the entry kind from a MIME type.
func KindForMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "text/"),
		strings.HasPrefix(mime, "application/json"),
		strings.HasPrefix(mime, "application/xml"):
		return KindText
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return KindBinary
	}
}
