// Package voicebank discovers UTAU voicebanks on disk and exposes each one
// as an [Ongen]: its character.txt metadata, oto.ini timing table, and
// optional prefix.map pitch-to-alias-affix table.
package voicebank

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/utavox/cantariserver/pkg/engine/oto"
)

const maxWalkDepth = 3

// Ongen is one loaded voicebank: its identity, metadata, prefix/suffix
// table, and the union of every oto.ini found under its root (searched up
// to three directories deep, matching how multi-pitch UTAU banks split
// entries across subfolders).
type Ongen struct {
	UUID     uuid.UUID
	Root     string
	Info     map[string]string
	PrefixMap map[string]PrefixSuffix
	Oto      map[string]*oto.Entry
}

// PrefixSuffix is the affix pair prefix.map attaches to a note name.
type PrefixSuffix struct {
	Prefix string
	Suffix string
}

// Load reads character.txt, every oto.ini under root, and prefix.map (if
// present) and builds an [Ongen]. existingUUIDs rejects voicebanks whose
// derived name-UUID collides with one already loaded.
func Load(root string, existingUUIDs map[uuid.UUID]*Ongen) (*Ongen, error) {
	characterPath := filepath.Join(root, "character.txt")
	raw, err := os.ReadFile(characterPath)
	if err != nil {
		return nil, fmt.Errorf("voicebank: reading character.txt: %w", err)
	}
	info, err := parseCharacterTxt(raw)
	if err != nil {
		return nil, fmt.Errorf("voicebank: parsing character.txt: %w", err)
	}

	name, ok := info["name"]
	if !ok {
		return nil, fmt.Errorf("voicebank: character.txt at %s has no name", root)
	}

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("ongen:"+name))
	if _, dup := existingUUIDs[id]; dup {
		return nil, fmt.Errorf("voicebank: duplicate UUID %s for %s", id, name)
	}

	allOto, err := loadAllOto(root)
	if err != nil {
		return nil, err
	}
	if len(allOto) == 0 {
		return nil, fmt.Errorf("voicebank: no oto.ini found under %s", root)
	}

	prefixMap, err := loadPrefixMap(root)
	if err != nil {
		return nil, err
	}

	return &Ongen{
		UUID:      id,
		Root:      root,
		Info:      info,
		PrefixMap: prefixMap,
		Oto:       allOto,
	}, nil
}

// Name returns the voicebank's display name from character.txt.
func (o *Ongen) Name() string { return o.Info["name"] }

// ID derives the VOICEVOX-style numeric speaker id from the first 8 hex
// digits of the voicebank's UUID (its time_low field): right-shifted by
// one bit and masked to clear the low byte, which is reserved for the
// style index (see [StyleID]).
func (o *Ongen) ID() uint32 {
	first := strings.SplitN(o.UUID.String(), "-", 2)[0]
	v, _ := strconv.ParseUint(first, 16, 32)
	return (uint32(v) >> 1) &^ 0xff
}

// StyleID combines this voicebank's id with a style index (0-255) into
// the speaker id VOICEVOX clients send on /synthesis and friends.
func (o *Ongen) StyleID(styleIndex uint8) uint32 {
	return o.ID() | uint32(styleIndex)
}

func loadAllOto(root string) (map[string]*oto.Entry, error) {
	all := make(map[string]*oto.Entry)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && strings.Count(rel, string(filepath.Separator))+1 > maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != "oto.ini" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		entries, err := oto.ParseIni(raw, filepath.Dir(path))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for name, entry := range entries {
			all[name] = entry
		}
		return nil
	})
	return all, err
}

func loadPrefixMap(root string) (map[string]PrefixSuffix, error) {
	path := filepath.Join(root, "prefix.map")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]PrefixSuffix{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("voicebank: reading prefix.map: %w", err)
	}

	out := make(map[string]PrefixSuffix)
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			return nil, fmt.Errorf("voicebank: malformed prefix.map line %q", line)
		}
		out[parts[0]] = PrefixSuffix{Prefix: parts[1], Suffix: parts[2]}
	}
	return out, nil
}
