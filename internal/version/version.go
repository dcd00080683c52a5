package version

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

const fallback = "0.0.0"

// Info is the contents of version.json at the working directory root.
type Info struct {
	Version string `json:"version"`
}

var (
	once   sync.Once
	cached Info
)

// Load reads version.json once and caches the result. A missing or
// malformed file logs a warning and reports 0.0.0 rather than failing
// startup.
func Load() Info {
	once.Do(func() {
		cached = Info{Version: fallback}
		data, err := os.ReadFile("version.json")
		if err != nil {
			log.Printf("warning: could not read version.json: %v", err)
			return
		}
		var info Info
		if err := json.Unmarshal(data, &info); err != nil {
			log.Printf("warning: could not parse version.json: %v", err)
			return
		}
		if info.Version != "" {
			cached = info
		}
	})
	return cached
}
