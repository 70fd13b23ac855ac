package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/teamboard/internal/config"
	"github.com/dyluth/teamboard/internal/notify"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// resetFlags restores every flag to its default so commands can run
// repeatedly against the shared rootCmd.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := Execute()
	return out.String(), errOut.String(), err
}

// fileConfig writes a teamboard.yml using the file driver with no artificial latency.
func fileConfig(t *testing.T, confirmation string) (configPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	configPath = filepath.Join(dir, "teamboard.yml")

	if confirmation == "" {
		confirmation = "confirmation:\n  mode: store\n  backend:\n    latency: 0s\n"
	}
	content := fmt.Sprintf(`version: "1.0"
instance: test-instance
storage:
  driver: file
  path: %s
loader:
  delay: 0s
notifications:
  delay: 1ms
%s`, dataDir, confirmation)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, dataDir
}

func redisConfig(t *testing.T, mr *miniredis.Miniredis) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "teamboard.yml")
	content := fmt.Sprintf(`version: "1.0"
instance: test-instance
storage:
  driver: redis
  redis_url: redis://%s/0
loader:
  delay: 0s
confirmation:
  backend:
    latency: 0s
notifications:
  delay: 1ms
`, mr.Addr())
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestRoot_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, _, err := execute(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "teamboard")
}

func TestRoot_RejectsUnknownFlags(t *testing.T) {
	_, _, err := execute(t, "", "--unknown-flag", "value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestHydrate_ColdThenWarm(t *testing.T) {
	cfg, dataDir := fileConfig(t, "")

	out, _, err := execute(t, "", "--config", cfg, "hydrate")
	require.NoError(t, err)
	assert.Contains(t, out, "employees: 6 records (cold start)")
	assert.Contains(t, out, "tasks: 5 records (cold start)")

	out, _, err = execute(t, "", "--config", cfg, "hydrate", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "tasks: 5 records (warm start)")
	assert.NotContains(t, out, "employees")

	_, err = os.Stat(filepath.Join(dataDir, "teamboard_test-instance_collection_tasks.json"))
	assert.NoError(t, err)
}

func TestHydrate_PersistsWithoutConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvInstance, "")
	missing := filepath.Join(t.TempDir(), "teamboard.yml")

	out, _, err := execute(t, "", "--config", missing, "hydrate", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "tasks: 5 records (cold start)")

	out, _, err = execute(t, "", "--config", missing, "hydrate", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "tasks: 5 records (warm start)")

	_, err = os.Stat(filepath.Join(".teamboard", "teamboard_default_collection_tasks.json"))
	assert.NoError(t, err)
}

func TestHydrate_InstanceOverride(t *testing.T) {
	cfg, dataDir := fileConfig(t, "")

	_, _, err := execute(t, "", "--config", cfg, "--name", "other", "hydrate", "employees")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dataDir, "teamboard_other_collection_employees.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "teamboard_test-instance_collection_employees.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestHydrate_UnknownKind(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	_, errOut, err := execute(t, "", "--config", cfg, "hydrate", "projects")
	require.Error(t, err)
	assert.Equal(t, "unknown kind", err.Error())
	assert.Contains(t, errOut, "Valid kinds: employees, tasks")
}

func TestList(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	t.Run("table with field filter", func(t *testing.T) {
		out, _, err := execute(t, "", "--config", cfg, "list", "employees", "--field", "department=technical")
		require.NoError(t, err)
		assert.Contains(t, out, "Employees for instance 'test-instance'")
		assert.Contains(t, out, "Technical")
		assert.NotContains(t, out, "Sales")
	})

	t.Run("jsonl with status filter", func(t *testing.T) {
		out, _, err := execute(t, "", "--config", cfg, "list", "tasks", "--status", "To Do", "--output", "jsonl")
		require.NoError(t, err)

		for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
			var r record.Record
			require.NoError(t, json.Unmarshal([]byte(line), &r))
			assert.Equal(t, record.StatusToDo, r.Status())
		}
	})

	t.Run("search", func(t *testing.T) {
		out, _, err := execute(t, "", "--config", cfg, "list", "employees", "--search", "olivia", "-o", "jsonl")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "\n"))
	})

	t.Run("invalid status", func(t *testing.T) {
		_, _, err := execute(t, "", "--config", cfg, "list", "tasks", "--status", "Blocked")
		assert.EqualError(t, err, "invalid status")
	})

	t.Run("invalid field filter", func(t *testing.T) {
		_, _, err := execute(t, "", "--config", cfg, "list", "tasks", "--field", "assignee")
		assert.EqualError(t, err, "invalid field filter")
	})

	t.Run("invalid output format", func(t *testing.T) {
		_, _, err := execute(t, "", "--config", cfg, "list", "tasks", "-o", "xml")
		assert.EqualError(t, err, "invalid output format")
	})
}

func TestList_LoadFailure(t *testing.T) {
	cfg, _ := fileConfig(t, "")
	seedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "tasks.json"), []byte(`{"tasks": [{"id": "1"}, {"id": "1"}]}`), 0644))

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	patched := strings.Replace(string(data), "delay: 0s\n", "delay: 0s\n  seed_dir: "+seedDir+"\n", 1)
	require.NoError(t, os.WriteFile(cfg, []byte(patched), 0644))

	out, errOut, err := execute(t, "", "--config", cfg, "list", "tasks")
	require.Error(t, err)
	assert.Equal(t, "failed to load tasks", err.Error())
	assert.Contains(t, errOut, "Error fetching tasks")
	assert.NotContains(t, out, "Tasks for instance")
}

func TestGet(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	out, _, err := execute(t, "", "--config", cfg, "get", "employees", "1")
	require.NoError(t, err)
	var r record.Record
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, "Olivia Bennett", r.String("name"))

	_, errOut, err := execute(t, "", "--config", cfg, "get", "tasks", "999")
	require.Error(t, err)
	assert.Equal(t, "Task not found", err.Error())
	assert.Contains(t, errOut, "No Task with ID '999' exists.")
}

func getStatus(t *testing.T, cfg, kind, id string) record.Status {
	t.Helper()
	out, _, err := execute(t, "", "--config", cfg, "get", kind, id)
	require.NoError(t, err)
	var r record.Record
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r.Status()
}

func TestMove_Confirmed(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	out, _, err := execute(t, "", "--config", cfg, "move", "1", "In Progress")
	require.NoError(t, err)
	assert.Contains(t, out, `Task "Prepare Q3 sales report" moved to In Progress`)

	assert.Equal(t, record.StatusInProgress, getStatus(t, cfg, "tasks", "1"))
}

func TestMove_RolledBack(t *testing.T) {
	cfg, _ := fileConfig(t, `confirmation:
  mode: store
  backend:
    latency: 0s
    failure_reason: network down
    fail_ids: ["2"]
`)

	out, errOut, err := execute(t, "", "--config", cfg, "move", "2", "Done", "--from", "To Do")
	require.Error(t, err)
	assert.Equal(t, "move rolled back", err.Error())
	assert.Contains(t, out, `Failed to move task "Migrate billing service": network down`)
	assert.Contains(t, errOut, "previous status has been restored")

	assert.Equal(t, record.StatusToDo, getStatus(t, cfg, "tasks", "2"))
}

func TestMove_SameStatusIsNoop(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	out, _, err := execute(t, "", "--config", cfg, "move", "1", "To Do")
	require.NoError(t, err)
	assert.Contains(t, out, `Task "1" is already To Do`)
	assert.NotContains(t, out, "moved to")

	out, _, err = execute(t, "", "--config", cfg, "move", "1", "To Do", "--from", "Done")
	require.NoError(t, err)
	assert.Contains(t, out, `Task "1" is already To Do`)
}

func TestMove_SharedModeDoesNotPersist(t *testing.T) {
	cfg, _ := fileConfig(t, "confirmation:\n  mode: shared\n")

	out, _, err := execute(t, "", "--config", cfg, "move", "1", "Done")
	require.NoError(t, err)
	assert.Contains(t, out, "moved to Done")

	assert.Equal(t, record.StatusToDo, getStatus(t, cfg, "tasks", "1"))
}

func TestMove_StoreIDsPolicy(t *testing.T) {
	cfg, _ := fileConfig(t, "confirmation:\n  store_ids: [\"1\"]\n  backend:\n    latency: 0s\n")

	_, _, err := execute(t, "", "--config", cfg, "move", "1", "Done")
	require.NoError(t, err)
	_, _, err = execute(t, "", "--config", cfg, "move", "2", "Done")
	require.NoError(t, err)

	assert.Equal(t, record.StatusDone, getStatus(t, cfg, "tasks", "1"))
	assert.Equal(t, record.StatusToDo, getStatus(t, cfg, "tasks", "2"))
}

func TestMove_Employee(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	out, _, err := execute(t, "", "--config", cfg, "move", "1", "Inactive", "--kind", "employees")
	require.NoError(t, err)
	assert.Contains(t, out, `Employee "Olivia Bennett" moved to Inactive`)
	assert.Equal(t, record.StatusInactive, getStatus(t, cfg, "employees", "1"))
}

func TestMove_Errors(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	_, errOut, err := execute(t, "", "--config", cfg, "move", "1", "Blocked")
	assert.EqualError(t, err, "invalid status")
	assert.Contains(t, errOut, "To Do, In Progress, Done")

	_, _, err = execute(t, "", "--config", cfg, "move", "999", "Done")
	assert.EqualError(t, err, "Task not found")

	_, _, err = execute(t, "", "--config", cfg, "move", "1", "Done", "--from", "In Progress")
	assert.EqualError(t, err, "status has changed")
}

func TestEdit(t *testing.T) {
	t.Run("yes flag saves", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")

		out, _, err := execute(t, "", "--config", cfg, "edit", "1", "--phone", "+1 555 9999", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "Saved Olivia Bennett")
		assert.NotContains(t, out, "Confirm Changes")

		got, _, err := execute(t, "", "--config", cfg, "get", "employees", "1")
		require.NoError(t, err)
		assert.Contains(t, got, `"phone": "+1 555 9999"`)
		assert.Contains(t, got, `"telegram": "@olivia_b"`)
	})

	t.Run("prompt accepted", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")

		out, _, err := execute(t, "y\n", "--config", cfg, "edit", "1", "--telegram", "@olivia")
		require.NoError(t, err)
		assert.Contains(t, out, "Confirm Changes\nAre you sure you want to save these changes? [y/N]: ")
		assert.Contains(t, out, "Saved Olivia Bennett")
	})

	t.Run("prompt declined", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")
		_, _, err := execute(t, "", "--config", cfg, "hydrate", "employees")
		require.NoError(t, err)

		out, _, err := execute(t, "n\n", "--config", cfg, "edit", "1", "--telegram", "@olivia")
		require.NoError(t, err)
		assert.Contains(t, out, "Changes discarded")

		got, _, err := execute(t, "", "--config", cfg, "get", "employees", "1")
		require.NoError(t, err)
		assert.Contains(t, got, `"telegram": "@olivia_b"`)
	})

	t.Run("no flags", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")
		_, _, err := execute(t, "", "--config", cfg, "edit", "1")
		assert.EqualError(t, err, "nothing to edit")
	})

	t.Run("unchanged value", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")
		out, _, err := execute(t, "", "--config", cfg, "edit", "1", "--telegram", "@olivia_b")
		require.NoError(t, err)
		assert.Contains(t, out, "No changes to save")
	})

	t.Run("unknown employee", func(t *testing.T) {
		cfg, _ := fileConfig(t, "")
		_, _, err := execute(t, "", "--config", cfg, "edit", "999", "--phone", "1", "--yes")
		assert.EqualError(t, err, "Employee not found")
	})
}

func TestReset(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	_, _, err := execute(t, "", "--config", cfg, "move", "1", "Done")
	require.NoError(t, err)

	out, _, err := execute(t, "", "--config", cfg, "reset", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared tasks")

	out, _, err = execute(t, "", "--config", cfg, "hydrate")
	require.NoError(t, err)
	assert.Contains(t, out, "tasks: 5 records (cold start)")
	assert.Contains(t, out, "employees: 6 records (warm start)")
	assert.Equal(t, record.StatusToDo, getStatus(t, cfg, "tasks", "1"), "reset discards persisted moves")
}

func TestWatch_RequiresRedis(t *testing.T) {
	cfg, _ := fileConfig(t, "")

	_, errOut, err := execute(t, "", "--config", cfg, "watch")
	assert.EqualError(t, err, "watch needs Redis")
	assert.Contains(t, errOut, "current: file")
}

func TestWatch_StreamsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(t, mr)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()
	channel := store.NotificationsChannel("test-instance")

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, _, err := execute(t, "", "--config", cfg, "watch", "--count", "1", "--output", "json")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		return rdb.PubSubNumSub(ctx, channel).Val()[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	n := notify.NewNotification(`Task "Prepare Q3 sales report" moved to Done`, notify.SeveritySuccess)
	require.NoError(t, notify.NewRedisSink(rdb, "test-instance").Publish(ctx, n))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		var got notify.Notification
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(res.out)), &got))
		assert.Equal(t, n.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not exit after one notification")
	}
}

func TestMove_PublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfig(t, mr)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	sub, err := notify.Subscribe(ctx, rdb, "test-instance")
	require.NoError(t, err)
	defer sub.Close()

	_, _, err = execute(t, "", "--config", cfg, "move", "3", "Done")
	require.NoError(t, err)

	select {
	case n := <-sub.Events():
		assert.Equal(t, notify.SeveritySuccess, n.Severity)
		assert.Equal(t, `Task "Close monthly books" moved to Done`, n.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification published")
	}

	raw, err := rdb.Get(ctx, store.CollectionKey("test-instance", record.KindTasks)).Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"Done"`)
}
