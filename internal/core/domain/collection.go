package domain

// ButlerType selects how a data collection's repository is queried.
type ButlerType string

const (
	ButlerDirect ButlerType = "DIRECT"
	ButlerRemote ButlerType = "REMOTE"
)

// Collection is one configured butler data collection, exposed at its own
// URL path segment. Collections are loaded once at startup and are
// read-only afterwards.
type Collection struct {
	// Name is the URL path segment identifying the collection.
	Name string

	// Label is the human-readable label, e.g. "LSST.DP02".
	Label string

	ButlerType ButlerType

	// Repository is the repository root: a base URL for REMOTE collections,
	// a database schema qualifier for DIRECT ones.
	Repository string

	// ConfigPath points at the ObsCore mapping file for this collection.
	ConfigPath string

	// DatalinkURL, when set, overrides the mapping's datalink URL format.
	DatalinkURL string

	Default bool

	Mapping *ObsCoreMapping
}

// Identifier returns the unique identifier used in logs.
func (c *Collection) Identifier() string {
	return c.Label + ":" + c.Repository
}

// Band is one known energy band of an instrument, bounds in meters.
type Band struct {
	Label string  `mapstructure:"label"`
	Low   float64 `mapstructure:"low"`
	High  float64 `mapstructure:"high"`
}

// ObsCoreMapping describes how a collection's repository maps onto the
// ObsCore model: which table holds the records and what the service knows
// about the underlying instruments.
type ObsCoreMapping struct {
	FacilityName       string   `mapstructure:"facility_name"`
	ObsCollections     []string `mapstructure:"obs_collections"`
	ResourceIdentifier string   `mapstructure:"resource_identifier"`
	Table              string   `mapstructure:"table"`
	Instruments        []string `mapstructure:"instruments"`
	Bands              []Band   `mapstructure:"bands"`
	DatalinkURLFmt     string   `mapstructure:"datalink_url_fmt"`
}
