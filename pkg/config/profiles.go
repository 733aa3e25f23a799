package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/trackscope/internal/entity"
)

// ErrProfilesNotFound is returned when the profiles file does not exist.
var ErrProfilesNotFound = errors.New("profiles file not found")

// ProfilesFile is the YAML document listing browser profiles.
type ProfilesFile struct {
	Profiles []entity.Profile `yaml:"profiles"`
}

// LoadProfiles reads browser profiles from a YAML file.
func LoadProfiles(path string) ([]entity.Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfilesNotFound
		}
		return nil, err
	}

	var pf ProfilesFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(pf.Profiles))
	for i, p := range pf.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile #%d has no name", i+1)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return pf.Profiles, nil
}

// SelectProfiles returns the named profiles in the requested order, or all
// profiles when names is empty.
func SelectProfiles(all []entity.Profile, names []string) ([]entity.Profile, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]entity.Profile, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
	out := make([]entity.Profile, 0, len(names))
	for _, n := range names {
		p, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", n)
		}
		out = append(out, p)
	}
	return out, nil
}
