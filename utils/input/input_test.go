package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
	"go.mongodb.org/mongo-driver/bson"
)

func TestInitFromFiles(t *testing.T) {
	dir := t.TempDir()
	road := filepath.Join(dir, "road.xodr")
	scenario := filepath.Join(dir, "s.xosc")
	require.NoError(t, os.WriteFile(road, []byte("<OpenDRIVE/>"), 0o644))
	require.NoError(t, os.WriteFile(scenario, []byte("<OpenSCENARIO/>"), 0o644))

	in, err := Init(context.Background(), config.Input{
		Road:     config.InputPath{File: road},
		Scenario: config.InputPath{File: scenario},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "<OpenDRIVE/>", string(in.Road))
	assert.Equal(t, "<OpenSCENARIO/>", string(in.Scenario))

	_, err = Init(context.Background(), config.Input{
		Road:     config.InputPath{File: filepath.Join(dir, "missing")},
		Scenario: config.InputPath{File: scenario},
	}, "")
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, preCheckCache(dir))
	assert.False(t, preCheckCache(""))
	assert.False(t, preCheckCache(filepath.Join(dir, "missing")))

	p := config.InputPath{DB: "sim", Col: "roads", Name: "town/01"}
	assert.Equal(t, filepath.Join(dir, "sim.roads.town_01.xml"), cachePath(dir, p))
	_, ok := readCache(dir, p)
	assert.False(t, ok)
	writeCache(dir, p, []byte("<OpenDRIVE/>"))
	data, ok := readCache(dir, p)
	require.True(t, ok)
	assert.Equal(t, "<OpenDRIVE/>", string(data))

	// 命中缓存时不需要MongoDB
	got, err := load(context.Background(), nil, p, dir)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	_, err = load(context.Background(), nil, config.InputPath{DB: "sim", Col: "other"}, dir)
	assert.Error(t, err)
}

func TestRecordData(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "name", Value: "a"}, {Key: "data", Value: "<x/>"}})
	require.NoError(t, err)
	var r record
	require.NoError(t, bson.Unmarshal(raw, &r))
	data, err := recordData(r)
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(data))

	raw, err = bson.Marshal(bson.D{{Key: "name", Value: "b"}, {Key: "data", Value: []byte("<y/>")}})
	require.NoError(t, err)
	r = record{}
	require.NoError(t, bson.Unmarshal(raw, &r))
	data, err = recordData(r)
	require.NoError(t, err)
	assert.Equal(t, "<y/>", string(data))

	raw, err = bson.Marshal(bson.D{{Key: "name", Value: "c"}, {Key: "data", Value: 3}})
	require.NoError(t, err)
	r = record{}
	require.NoError(t, bson.Unmarshal(raw, &r))
	_, err = recordData(r)
	assert.Error(t, err)
}
