package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/block/qualitychecker/pkg/check"
	"github.com/block/qualitychecker/pkg/utils"
	"gopkg.in/yaml.v3"
)

// AllChecksKeyword selects every registered check.
const AllChecksKeyword = "all"

// CheckSet is the set of enabled check ids. In YAML it is either the
// scalar "all" or a list of ids; on the command line it is "all" or a
// comma separated list.
type CheckSet struct {
	All bool
	IDs []int
}

func AllChecks() CheckSet {
	return CheckSet{All: true}
}

// ParseCheckSet parses "all" or "1,2,11".
func ParseCheckSet(s string) (CheckSet, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, AllChecksKeyword) {
		return AllChecks(), nil
	}
	ids, err := utils.ParseIntList(s)
	if err != nil {
		return CheckSet{}, fmt.Errorf("%w: checks: %w", ErrInvalidConfig, err)
	}
	return CheckSet{IDs: ids}, nil
}

// IsEmpty is true when nothing was configured.
func (s CheckSet) IsEmpty() bool {
	return !s.All && len(s.IDs) == 0
}

func (s CheckSet) String() string {
	if s.All {
		return AllChecksKeyword
	}
	return utils.FormatIntList(s.IDs)
}

// Definitions resolves the set against the check catalog. An id without a
// registered check is an error.
func (s CheckSet) Definitions() ([]check.Definition, error) {
	if s.All {
		return check.All(), nil
	}
	return check.Enabled(s.IDs)
}

func (s *CheckSet) UnmarshalText(text []byte) error {
	parsed, err := ParseCheckSet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *CheckSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return s.UnmarshalText([]byte(value.Value))
	case yaml.SequenceNode:
		ids := make([]int, 0, len(value.Content))
		for _, n := range value.Content {
			id, err := strconv.Atoi(strings.TrimSpace(n.Value))
			if err != nil {
				return fmt.Errorf("%w: line %d: check id %q is not an integer", ErrInvalidConfig, n.Line, n.Value)
			}
			ids = append(ids, id)
		}
		*s = CheckSet{IDs: ids}
		return nil
	default:
		return fmt.Errorf("%w: line %d: checks must be %q or a list of ids", ErrInvalidConfig, value.Line, AllChecksKeyword)
	}
}
