package refsync

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"maprandovideos.io/videos/internal/catalog"
)

type roomFile struct {
	ID         int32         `json:"id"`
	Name       string        `json:"name"`
	Area       string        `json:"area"`
	Subarea    string        `json:"subarea"`
	Subsubarea string        `json:"subsubarea"`
	Nodes      []nodeFile    `json:"nodes"`
	Notables   []notableFile `json:"notables"`
	Links      []linkFile    `json:"links"`
}

type nodeFile struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type notableFile struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type linkFile struct {
	From int32        `json:"from"`
	To   []linkToFile `json:"to"`
}

type linkToFile struct {
	ID     int32       `json:"id"`
	Strats []stratFile `json:"strats"`
}

type stratFile struct {
	ID       int32             `json:"id"`
	Name     string            `json:"name"`
	Requires []json.RawMessage `json:"requires"`
}

// ParseRegionFiles walks repoRoot/region/**/*.json, skipping any path
// containing "ceres" or "roomDiagrams", and assembles the rooms, nodes,
// strats, notables and notable-strat edges of the new reference generation.
// Areas are validated against the fixed vocabulary as they are encountered.
func ParseRegionFiles(repoRoot string) (catalog.ReferenceData, error) {
	var data catalog.ReferenceData
	seenAreas := make(map[int32]bool)

	regionRoot := filepath.Join(repoRoot, "region")
	err := filepath.WalkDir(regionRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		if strings.Contains(path, "ceres") || strings.Contains(path, "roomDiagrams") {
			return nil
		}

		return parseRoomFile(path, &data, seenAreas)
	})
	if err != nil {
		return catalog.ReferenceData{}, fmt.Errorf("refsync: walk region files: %w", err)
	}
	return data, nil
}

func parseRoomFile(path string, data *catalog.ReferenceData, seenAreas map[int32]bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var rf roomFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	areaName := composeAreaName(rf.Area, rf.Subarea, rf.Subsubarea)
	id, err := areaID(areaName)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !seenAreas[id] {
		data.Areas = append(data.Areas, catalog.Area{ID: id, Name: areaName})
		seenAreas[id] = true
	}

	data.Rooms = append(data.Rooms, catalog.Room{RoomID: rf.ID, AreaID: id, Name: rf.Name})

	notableIDs := make(map[string]int32, len(rf.Notables))
	for _, n := range rf.Notables {
		data.Notables = append(data.Notables, catalog.Notable{RoomID: rf.ID, NotableID: n.ID, Name: n.Name})
		notableIDs[n.Name] = n.ID
	}

	for _, node := range rf.Nodes {
		data.Nodes = append(data.Nodes, catalog.Node{RoomID: rf.ID, NodeID: node.ID, Name: node.Name})
	}

	for _, link := range rf.Links {
		for _, to := range link.To {
			for _, strat := range to.Strats {
				if strat.ID == 0 {
					continue // unassigned strat id, skipped per the sync contract
				}
				data.Strats = append(data.Strats, catalog.Strat{
					RoomID: rf.ID, StratID: strat.ID,
					FromNodeID: link.From, ToNodeID: to.ID,
					Name: strat.Name,
				})

				edges, err := walkRequirements(strat.Requires, rf.ID, strat.ID, notableIDs)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				data.NotableStrats = append(data.NotableStrats, edges...)
			}
		}
	}

	return nil
}

type techFile struct {
	ID             *int32     `json:"id"`
	Name           string     `json:"name"`
	ExtensionTechs []techFile `json:"extensionTechs"`
}

// ParseTechFile walks tech.json recursively through extensionTechs,
// skipping any node that lacks an id.
func ParseTechFile(path string) ([]catalog.Tech, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refsync: read tech file: %w", err)
	}

	var root techFile
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("refsync: parse tech file: %w", err)
	}

	var techs []catalog.Tech
	walkTech(root, &techs)
	return techs, nil
}

func walkTech(node techFile, out *[]catalog.Tech) {
	if node.ID != nil {
		*out = append(*out, catalog.Tech{ID: *node.ID, Name: node.Name})
	}
	for _, child := range node.ExtensionTechs {
		walkTech(child, out)
	}
}
