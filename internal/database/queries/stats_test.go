package queries

import (
	"encoding/json"
	"testing"
)

func TestPlatformStatsJSONKeys(t *testing.T) {
	stats := &PlatformStats{
		Users:               3,
		PublishedProjects:   1,
		DeploymentsByStatus: map[string]int64{"deployed": 2},
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatal(err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"users", "published_projects", "deployments_by_status"} {
		if _, ok := keys[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if _, ok := keys["Users"]; ok {
		t.Error("stats should not expose Go-cased field names")
	}
}
