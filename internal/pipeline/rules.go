package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mechdash/internal"
)

// defaultNonAdditive holds point-in-time indicators whose period value is the
// latest reported quarter rather than the sum of quarters.
var defaultNonAdditive = []string{
	"PrEP_CT", "PrEP_CURR", "TX_CURR", "TX_CURR_ARVDisp_less_three_mo",
	"TX_CURR_ARVDisp_six_more_mo", "TX_CURR_ARVDisp_three_five_mo",
	"TX_PVLS", "OVC_SERV", "TX_TB",
}

type IndicatorSet map[string]struct{}

func NewIndicatorSet(names ...string) IndicatorSet {
	set := make(IndicatorSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains matches the indicator name exactly. A nil indicator is never a member.
func (s IndicatorSet) Contains(indicator *string) bool {
	if indicator == nil {
		return false
	}
	_, ok := s[*indicator]
	return ok
}

func (s IndicatorSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Rules is the immutable configuration the engine runs with. Indicators outside
// NonAdditive are treated as additive, including ones never seen before.
type Rules struct {
	Aliases     AliasTable
	NonAdditive IndicatorSet
}

func DefaultRules() Rules {
	return Rules{
		Aliases:     DefaultAliases(),
		NonAdditive: NewIndicatorSet(defaultNonAdditive...),
	}
}

type rulesFile struct {
	NonAdditive []string            `yaml:"nonAdditive"`
	Aliases     map[string][]string `yaml:"aliases"`
}

// LoadRules reads a YAML rules file layered over DefaultRules. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	rules, err := ParseRules(blob)
	if err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// ParseRules applies a YAML document to DefaultRules. A present nonAdditive list
// replaces the default set; each aliases entry replaces that field's list.
func ParseRules(blob []byte) (Rules, error) {
	var doc rulesFile
	if err := yaml.Unmarshal(blob, &doc); err != nil {
		return Rules{}, err
	}

	rules := DefaultRules()
	if doc.NonAdditive != nil {
		rules.NonAdditive = NewIndicatorSet(doc.NonAdditive...)
	}
	for name, aliases := range doc.Aliases {
		field, ok := internal.ParseCanonicalField(name)
		if !ok {
			return Rules{}, fmt.Errorf("unknown field %q in aliases", name)
		}
		if len(aliases) == 0 {
			return Rules{}, fmt.Errorf("aliases for %q must not be empty", name)
		}
		rules.Aliases[field] = append([]string(nil), aliases...)
	}
	if err := rules.validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) validate() error {
	for _, field := range internal.CanonicalFields {
		if len(r.Aliases[field]) == 0 {
			return errors.New("missing aliases for " + field.String())
		}
	}
	return nil
}
