// Package scene loads the fixed set of world objects from JSON asset
// files at startup. Object geometry is immutable after loading; only
// per-kind state mutates at runtime.
package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pixil98/go-presence/internal/world"
)

type objectSpec struct {
	Id          string          `json:"id"`
	Kind        string          `json:"kind"`
	Rect        world.Rect      `json:"rect"`
	Interactive bool            `json:"interactive"`
	State       json.RawMessage `json:"state"`
}

type lightSpec struct {
	On bool `json:"on"`
}

type boardSpec struct {
	Highlight string   `json:"highlight"`
	Pinned    []string `json:"pinned"`
}

// Load reads every .json file under path into world objects. Each
// file holds one object. Duplicate ids and unknown kinds are errors;
// a broken scene should fail startup, not limp along.
func Load(path string) ([]world.WorldObject, error) {
	seen := map[string]bool{}
	var objects []world.WorldObject

	err := filepath.Walk(path, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || filepath.Ext(p) != ".json" {
			return nil
		}

		obj, err := loadObject(p)
		if err != nil {
			return fmt.Errorf("loading %s: %w", filepath.Base(p), err)
		}

		if err := obj.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", filepath.Base(p), err)
		}

		if seen[obj.Id] {
			return fmt.Errorf("duplicate object id: %s", obj.Id)
		}
		seen[obj.Id] = true

		objects = append(objects, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Id < objects[j].Id })
	return objects, nil
}

func loadObject(path string) (world.WorldObject, error) {
	file, err := os.Open(path)
	if err != nil {
		return world.WorldObject{}, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return world.WorldObject{}, fmt.Errorf("reading file: %w", err)
	}

	var spec objectSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return world.WorldObject{}, fmt.Errorf("unmarshalling object: %w", err)
	}

	obj := world.WorldObject{
		Id:          spec.Id,
		Kind:        world.ObjectKind(spec.Kind),
		Rect:        spec.Rect,
		Interactive: spec.Interactive,
	}

	switch obj.Kind {
	case world.KindToggleLight:
		var st lightSpec
		if len(spec.State) > 0 {
			if err := json.Unmarshal(spec.State, &st); err != nil {
				return world.WorldObject{}, fmt.Errorf("unmarshalling light state: %w", err)
			}
		}
		obj.State = world.LightState{On: st.On}
	case world.KindNoticeBoard:
		var st boardSpec
		if len(spec.State) > 0 {
			if err := json.Unmarshal(spec.State, &st); err != nil {
				return world.WorldObject{}, fmt.Errorf("unmarshalling board state: %w", err)
			}
		}
		obj.State = world.BoardState{Highlight: st.Highlight, Pinned: st.Pinned}
	}

	return obj, nil
}
