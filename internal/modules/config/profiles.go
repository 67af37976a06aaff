package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"signal_scanner/internal/models"
)

// LoadProfiles returns the built-in profiles merged with the overrides in path.
//
// Every top-level key of the file names a profile. Keys missing from a profile entry keep
// the value of the built-in profile with the same name, or of the built-in profile named
// by `extends` (intraday when neither exists).
func LoadProfiles(path string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(models.ProfilePresets))
	for _, name := range models.DefaultProfileNames() {
		p, _ := models.DefaultProfile(name)
		out[name] = p
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profiles %s: %w", path, err)
		}
		if err := mergeProfiles(out, raw); err != nil {
			return nil, fmt.Errorf("profiles %s: %w", path, err)
		}
	}

	for name, p := range out {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	return out, nil
}

func mergeProfiles(into map[string]models.Profile, raw []byte) error {
	var doc map[string]yaml.MapSlice
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	for name, node := range doc {
		body, err := yaml.Marshal(node)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		var head struct {
			Extends string `yaml:"extends"`
		}
		if err := yaml.Unmarshal(body, &head); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		base, ok := into[name]
		if head.Extends != "" {
			if base, ok = models.DefaultProfile(head.Extends); !ok {
				return fmt.Errorf("%s: extends unknown built-in profile %q", name, head.Extends)
			}
		} else if !ok {
			base, _ = models.DefaultProfile("intraday")
		}

		if err := yaml.Unmarshal(body, &base); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		base.Name = name
		into[name] = base
	}
	return nil
}
