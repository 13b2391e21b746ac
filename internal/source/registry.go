// Package source orchestrates the external collaborators that feed the
// pipeline: it fans fetches out concurrently, isolates per-source failures,
// and hands complete in-memory payloads to the parsers. No parsing or
// merging logic lives here.
package source

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry declares which collaborators a run may use and where they live.
// Loaded once from sources.yaml at startup and treated as immutable.
type Registry struct {
	Graph   GraphSource   `yaml:"graph"`
	Public  PublicSource  `yaml:"public"`
	MC      MCSource      `yaml:"message_center"`
	Tracker TrackerSource `yaml:"tracker"`
}

// GraphSource configures the authenticated Graph collaborator.
type GraphSource struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// PublicSource configures the public roadmap feed and its RSS fallback.
type PublicSource struct {
	Enabled bool   `yaml:"enabled"`
	FeedURL string `yaml:"feed_url"`
	RSSURL  string `yaml:"rss_url"`
}

// MCSource configures the Message Center public mirror.
type MCSource struct {
	Enabled   bool   `yaml:"enabled"`
	MirrorURL string `yaml:"mirror_url"`
}

// TrackerSource configures third-party tracker ingestion from a local
// CSV/XLSX export.
type TrackerSource struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultRegistry returns the registry used when no sources.yaml exists.
func DefaultRegistry() Registry {
	return Registry{
		Graph: GraphSource{
			Enabled:  true,
			Endpoint: "https://graph.microsoft.com/v1.0/admin/serviceAnnouncement/messages",
		},
		Public: PublicSource{
			Enabled: true,
			FeedURL: "https://www.microsoft.com/releasecommunications/api/v2/m365/roadmap",
			RSSURL:  "https://www.microsoft.com/releasecommunications/api/v2/m365/rss",
		},
		MC: MCSource{
			Enabled:   true,
			MirrorURL: "https://mc.merill.net",
		},
		Tracker: TrackerSource{},
	}
}

// LoadRegistry reads sources.yaml. A missing file yields the defaults; a
// malformed file is an error, not a silent fallback.
func LoadRegistry(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(), nil
		}
		return Registry{}, eris.Wrapf(err, "source: read registry %s", path)
	}

	var wrapper struct {
		Sources Registry `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Registry{}, eris.Wrap(err, "source: parse registry")
	}
	reg := wrapper.Sources

	// Fill endpoint gaps from the defaults so a partial file stays usable.
	def := DefaultRegistry()
	if reg.Graph.Endpoint == "" {
		reg.Graph.Endpoint = def.Graph.Endpoint
	}
	if reg.Public.FeedURL == "" {
		reg.Public.FeedURL = def.Public.FeedURL
	}
	if reg.Public.RSSURL == "" {
		reg.Public.RSSURL = def.Public.RSSURL
	}
	if reg.MC.MirrorURL == "" {
		reg.MC.MirrorURL = def.MC.MirrorURL
	}
	return reg, nil
}
