package refsync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestParseRegionFiles(t *testing.T) {
	root := t.TempDir()

	writeFixture(t, filepath.Join(root, "region", "crateria", "landingsite.json"), `{
		"id": 1,
		"name": "Landing Site",
		"area": "Crateria",
		"subarea": "Central",
		"nodes": [{"id": 1, "name": "Left Door"}, {"id": 2, "name": "Right Door"}],
		"notables": [{"id": 1, "name": "Gauntlet Clip"}],
		"links": [
			{"from": 1, "to": [{"id": 2, "strats": [{"id": 10, "name": "Base", "requires": []}]}]}
		]
	}`)

	// Must be skipped per the sync contract.
	writeFixture(t, filepath.Join(root, "region", "ceres", "ceres.json"), `{"id": 999}`)
	writeFixture(t, filepath.Join(root, "region", "roomDiagrams", "foo.json"), `{"id": 998}`)

	data, err := ParseRegionFiles(root)
	require.NoError(t, err)

	require.Len(t, data.Areas, 1)
	require.Equal(t, "Central Crateria", data.Areas[0].Name)

	require.Len(t, data.Rooms, 1)
	require.Equal(t, int32(1), data.Rooms[0].RoomID)

	require.Len(t, data.Nodes, 2)
	require.Len(t, data.Notables, 1)

	require.Len(t, data.Strats, 1)
	require.Equal(t, int32(10), data.Strats[0].StratID)
	require.Equal(t, int32(1), data.Strats[0].FromNodeID)
	require.Equal(t, int32(2), data.Strats[0].ToNodeID)
}

func TestParseRegionFiles_UnknownAreaFails(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "region", "bogus", "room.json"), `{
		"id": 1, "name": "Room", "area": "Bogusville"
	}`)

	_, err := ParseRegionFiles(root)
	require.Error(t, err)
}

func TestParseRegionFiles_SkipsUnassignedStratID(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "region", "tourian", "room.json"), `{
		"id": 1, "name": "Room", "area": "Tourian",
		"links": [{"from": 1, "to": [{"id": 2, "strats": [{"id": 0, "name": "Unassigned", "requires": []}]}]}]
	}`)

	data, err := ParseRegionFiles(root)
	require.NoError(t, err)
	require.Empty(t, data.Strats)
}

func TestParseTechFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tech.json")
	writeFixture(t, path, `{
		"name": "root",
		"extensionTechs": [
			{"id": 1, "name": "canWalljump"},
			{"name": "noID", "extensionTechs": [{"id": 2, "name": "canMidairWalljump"}]}
		]
	}`)

	techs, err := ParseTechFile(path)
	require.NoError(t, err)
	require.Len(t, techs, 2)
	require.Equal(t, "canWalljump", techs[0].Name)
	require.Equal(t, "canMidairWalljump", techs[1].Name)
}

func TestComposeAreaName(t *testing.T) {
	require.Equal(t, "Crateria", composeAreaName("Crateria", "Main", ""))
	require.Equal(t, "East Crateria", composeAreaName("Crateria", "East", ""))
	require.Equal(t, "Deep East Crateria", composeAreaName("Crateria", "East", "Deep"))
}

func TestAreaID_UnknownFails(t *testing.T) {
	_, err := areaID("Nowhere")
	require.Error(t, err)
}

func TestWalkRequirements_NotableLeaf(t *testing.T) {
	requires := rawItems(t, `["canWalljump", {"notable": "Gauntlet Clip"}]`)
	notableIDs := map[string]int32{"Gauntlet Clip": 5}

	edges, err := walkRequirements(requires, 1, 10, notableIDs)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, int32(1), edges[0].RoomID)
	require.Equal(t, int32(5), edges[0].NotableID)
	require.Equal(t, int32(10), edges[0].StratID)
}

func TestWalkRequirements_UnknownNotableFails(t *testing.T) {
	requires := rawItems(t, `[{"notable": "Nonexistent"}]`)
	_, err := walkRequirements(requires, 1, 10, map[string]int32{})
	require.Error(t, err)
}

func TestWalkRequirements_AndOrNesting(t *testing.T) {
	requires := rawItems(t, `[{"and": ["canWalljump", {"or": [{"notable": "A"}, {"notable": "B"}]}]}]`)
	notableIDs := map[string]int32{"A": 1, "B": 2}

	edges, err := walkRequirements(requires, 1, 10, notableIDs)
	require.NoError(t, err)
	require.Len(t, edges, 2)
}

func rawItems(t *testing.T, arr string) []json.RawMessage {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(arr), &items))
	return items
}
