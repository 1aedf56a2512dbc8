package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"sia-service/internal/core/domain"
)

// collectionEntry is the on-disk shape of one data collection.
type collectionEntry struct {
	Name        string `mapstructure:"name"`
	Label       string `mapstructure:"label"`
	ButlerType  string `mapstructure:"butler_type"`
	Repository  string `mapstructure:"repository"`
	Config      string `mapstructure:"config"`
	DatalinkURL string `mapstructure:"datalink_url"`
	Default     bool   `mapstructure:"default"`
}

// LoadCollections reads the data collection list from path and loads each
// collection's ObsCore mapping file. Relative mapping paths resolve
// against the collections file's directory.
func LoadCollections(path string) ([]*domain.Collection, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read collections config %s: %w", path, err)
	}

	var entries []collectionEntry
	if err := v.UnmarshalKey("collections", &entries); err != nil {
		return nil, fmt.Errorf("parse collections config %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoCollections
	}

	baseDir := filepath.Dir(path)
	collections := make([]*domain.Collection, 0, len(entries))
	for _, e := range entries {
		c, err := buildCollection(e, baseDir)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func buildCollection(e collectionEntry, baseDir string) (*domain.Collection, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("data collection is missing a name")
	}
	butlerType := domain.ButlerType(strings.ToUpper(e.ButlerType))
	switch butlerType {
	case domain.ButlerDirect, domain.ButlerRemote:
	default:
		return nil, fmt.Errorf("collection %q: unknown butler_type %q", e.Name, e.ButlerType)
	}
	if e.Repository == "" {
		return nil, fmt.Errorf("collection %q: repository is required", e.Name)
	}

	c := &domain.Collection{
		Name:        e.Name,
		Label:       e.Label,
		ButlerType:  butlerType,
		Repository:  e.Repository,
		ConfigPath:  e.Config,
		DatalinkURL: e.DatalinkURL,
		Default:     e.Default,
	}
	if c.Label == "" {
		c.Label = e.Name
	}

	if e.Config != "" {
		mappingPath := e.Config
		if !filepath.IsAbs(mappingPath) {
			mappingPath = filepath.Join(baseDir, mappingPath)
		}
		mapping, err := loadMapping(mappingPath)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", e.Name, err)
		}
		c.Mapping = mapping
	}
	return c, nil
}

func loadMapping(path string) (*domain.ObsCoreMapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read obscore mapping %s: %w", path, err)
	}
	var mapping domain.ObsCoreMapping
	if err := v.Unmarshal(&mapping); err != nil {
		return nil, fmt.Errorf("parse obscore mapping %s: %w", path, err)
	}
	return &mapping, nil
}
