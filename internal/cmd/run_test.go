package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/resched/internal/config"
	"github.com/harrison/resched/internal/todoist"
)

func TestRunCommandRequiresToken(t *testing.T) {
	t.Setenv(config.APITokenEnv, "")

	root := NewRootCommand()
	root.SetArgs([]string{"run", "--dry-run", "--config", filepath.Join(t.TempDir(), "none.yaml")})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.APITokenEnv)
}

func TestRunCommandDryRunAgainstFakeServer(t *testing.T) {
	var mu sync.Mutex
	var postPaths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mu.Lock()
			postPaths = append(postPaths, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
			return
		}

		switch r.URL.Path {
		case "/tasks/filter":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []todoist.Task{
					{ID: "1", Content: "Water the plants", Priority: 1},
					{ID: "2", Content: "Pay the rent", Priority: 4},
				},
			})
		case "/comments":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []todoist.Comment{},
			})
		case "/tasks/completed/by_completion_date":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []todoist.Task{},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("todoist:\n  base_url: %s\n", server.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	t.Setenv(config.APITokenEnv, "test-token")

	root := NewRootCommand()
	root.SetArgs([]string{"run", "--dry-run", "--config", configPath})

	require.NoError(t, root.Execute())

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, postPaths, "dry run must not write anything")
}
