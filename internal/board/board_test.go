package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dyluth/teamboard/internal/filter"
	"github.com/dyluth/teamboard/internal/loader"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func setupLoader(t *testing.T) *loader.Loader {
	t.Helper()
	st, err := store.New(store.NewMemoryMedium(), "test-instance")
	require.NoError(t, err)
	return loader.New(st, loader.NewStaticSource(), loader.WithDelay(0))
}

func TestFormatTable(t *testing.T) {
	coll := record.Collection{
		record.New("1", map[string]any{"title": "Write docs", "status": "To Do", "assignee": "1", "description": "long text"}),
		record.New("2", map[string]any{"title": strings.Repeat("x", 50), "status": "Done"}),
	}

	var buf bytes.Buffer
	n := FormatTable(&buf, record.KindTasks, coll, "test-instance")
	assert.Equal(t, 2, n)

	out := buf.String()
	assert.Contains(t, out, "Tasks for instance 'test-instance':")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "ASSIGNEE")
	assert.NotContains(t, out, "long text", "description is not a table column")
	assert.Contains(t, out, strings.Repeat("x", 29)+"...")
	assert.Contains(t, out, "2 tasks found")

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[5], "2      "+strings.Repeat("x", 29)))
}

func TestFormatTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := FormatTable(&buf, record.KindEmployees, nil, "test-instance")
	assert.Equal(t, 0, n)
	assert.Equal(t, "No employees found for instance 'test-instance'\n", buf.String())
}

func TestFormatTable_Singular(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&buf, record.KindEmployees, record.Collection{record.New("1", map[string]any{"name": "Ann"})}, "x")
	assert.Contains(t, buf.String(), "1 employee found")
	assert.Contains(t, buf.String(), "-", "missing fields render as a dash")
}

func TestFormatJSONL(t *testing.T) {
	coll := record.Collection{
		record.New("1", map[string]any{"title": "a"}),
		record.New("2", map[string]any{"title": "b"}),
	}

	var buf bytes.Buffer
	require.NoError(t, FormatJSONL(&buf, coll))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, map[string]any{"id": "1", "title": "a"}, first)
}

func TestFormatSingleJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSingleJSON(&buf, record.New("7", map[string]any{"name": "Ann"})))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	assert.Contains(t, buf.String(), "\n  \"name\": \"Ann\"")
}

func TestListRecords(t *testing.T) {
	l := setupLoader(t)
	ctx := context.Background()

	t.Run("table with filters", func(t *testing.T) {
		var buf bytes.Buffer
		criteria := &filter.Criteria{Fields: map[string]string{"department": "Technical"}}
		require.NoError(t, ListRecords(ctx, l, record.KindEmployees, "test-instance", OutputFormatDefault, criteria, &buf))
		assert.Contains(t, buf.String(), "Technical")
		assert.NotContains(t, buf.String(), "Sales")
	})

	t.Run("jsonl", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ListRecords(ctx, l, record.KindTasks, "test-instance", OutputFormatJSONL, nil, &buf))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 5)
	})

	t.Run("unknown format", func(t *testing.T) {
		err := ListRecords(ctx, l, record.KindTasks, "test-instance", OutputFormat("xml"), nil, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unknown output format")
	})

	assert.Equal(t, int64(2), l.ColdFetches(), "each kind hydrates once")
}

func TestListRecords_LoadFailure(t *testing.T) {
	st, err := store.New(store.NewMemoryMedium(), "test-instance")
	require.NoError(t, err)
	failing := loader.SourceFunc(func(ctx context.Context, kind record.Kind) (record.Collection, error) {
		return nil, errors.New("source unreachable")
	})
	l := loader.New(st, failing, loader.WithDelay(0))

	var buf bytes.Buffer
	err = ListRecords(context.Background(), l, record.KindTasks, "test-instance", OutputFormatDefault, nil, &buf)
	assert.ErrorIs(t, err, loader.ErrLoadFailure)
	assert.Empty(t, buf.String(), "no stale data is shown on load failure")
}

func TestGetRecord(t *testing.T) {
	l := setupLoader(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, GetRecord(ctx, l, record.KindEmployees, "1", &buf))
	assert.Contains(t, buf.String(), `"id": "1"`)
	assert.Contains(t, buf.String(), `"avatarUrl"`)

	err := GetRecord(ctx, l, record.KindTasks, "999", &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "Task with ID '999' not found", err.Error())
}
