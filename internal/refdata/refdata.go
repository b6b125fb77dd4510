// Package refdata exposes the static country/state and tools-by-track tables.
// Both are hand-maintained YAML embedded in the binary.
package refdata

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robby/learnhub/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var countriesYAML []byte

//go:embed data/tools.yaml
var toolsYAML []byte

// Country is one entry of the country lookup table.
type Country struct {
	Name   string   `yaml:"name"`
	Code   string   `yaml:"code"`
	States []string `yaml:"states"`
}

// Data holds the decoded tables.
type Data struct {
	countries []Country
	byName    map[string]*Country
	tools     map[string][]string
}

var (
	loadOnce sync.Once
	loaded   *Data
	loadErr  error
)

// Load decodes the embedded tables once and returns them.
func Load() (*Data, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(countriesYAML, toolsYAML)
	})
	return loaded, loadErr
}

// Parse decodes country and tools YAML documents.
func Parse(countriesDoc, toolsDoc []byte) (*Data, error) {
	d := &Data{
		byName: make(map[string]*Country),
		tools:  make(map[string][]string),
	}

	if err := yaml.Unmarshal(countriesDoc, &d.countries); err != nil {
		return nil, fmt.Errorf("failed to parse countries: %w", err)
	}
	sort.Slice(d.countries, func(i, j int) bool {
		return d.countries[i].Name < d.countries[j].Name
	})
	for i := range d.countries {
		c := &d.countries[i]
		if c.Name == "" {
			return nil, fmt.Errorf("country #%d has no name", i)
		}
		sort.Strings(c.States)
		d.byName[strings.ToLower(c.Name)] = c
	}

	if err := yaml.Unmarshal(toolsDoc, &d.tools); err != nil {
		return nil, fmt.Errorf("failed to parse tools: %w", err)
	}
	return d, nil
}

// Countries returns country names followed by the "Other" option.
func (d *Data) Countries() []string {
	names := make([]string, 0, len(d.countries)+1)
	for _, c := range d.countries {
		names = append(names, c.Name)
	}
	return append(names, domain.OtherLabel)
}

// States returns the state options for a country choice, always ending with "Other".
// Unknown countries and the Other country only offer "Other".
func (d *Data) States(country domain.Choice) []string {
	var states []string
	if c, ok := d.byName[strings.ToLower(country.Value())]; ok {
		states = append(states, c.States...)
	}
	return append(states, domain.OtherLabel)
}

// HasState reports whether state is listed for country.
func (d *Data) HasState(country, state string) bool {
	c, ok := d.byName[strings.ToLower(country)]
	if !ok {
		return false
	}
	for _, s := range c.States {
		if strings.EqualFold(s, state) {
			return true
		}
	}
	return false
}

// ToolsForTrack returns the tool options for a track key. Unknown tracks yield nil.
func (d *Data) ToolsForTrack(trackKey string) []string {
	tools := d.tools[trackKey]
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}
