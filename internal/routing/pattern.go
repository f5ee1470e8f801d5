package routing

import (
	"fmt"
	"strings"
)

// Pattern syntax constants.
const (
	// Separator divides a topic into segments.
	Separator = "/"

	// singleMarker prefixes a single-level parameter segment ("+name").
	singleMarker = '+'

	// multiMarker prefixes a multi-level parameter segment ("#name").
	// A multi-level parameter is only valid as the final segment, mirroring
	// the MQTT multi-level wildcard placement rule.
	multiMarker = '#'
)

// segmentKind distinguishes the three segment types of a compiled pattern.
type segmentKind int

const (
	segLiteral segmentKind = iota
	segSingle
	segMulti
)

// segment is one compiled pattern segment. value holds the literal text for
// segLiteral and the parameter name for segSingle/segMulti.
type segment struct {
	kind  segmentKind
	value string
}

// Pattern is a compiled parameterised topic pattern.
//
// A Pattern is created once by Compile and is immutable afterwards, so it is
// safe for concurrent use. Compiling once and reusing the result matters:
// matching runs on the hot path of every received message across all
// registered labels.
type Pattern struct {
	raw        string
	segments   []segment
	paramCount int

	// filter is the MQTT wildcard form of the pattern ("+name" → "+",
	// "#name" → "#"), derived at compile time and used for broker
	// subscriptions.
	filter string
}

// Compile parses a parameterised topic pattern into a Pattern.
//
// Segments are separated by "/". A segment beginning with "+" declares a
// single-level parameter, a segment beginning with "#" declares a
// multi-level parameter. All other segments are literals.
//
// Returns an error wrapping ErrInvalidPattern when:
//   - the pattern string is empty
//   - a multi-level parameter appears anywhere but the final segment
//   - a parameter name is empty or duplicated within the pattern
//   - a literal segment contains the wildcard characters "+" or "#"
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	parts := strings.Split(pattern, Separator)
	segments := make([]segment, 0, len(parts))
	filter := make([]string, 0, len(parts))
	seen := make(map[string]struct{})
	paramCount := 0

	for i, part := range parts {
		switch {
		case part != "" && part[0] == byte(singleMarker):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: parameter segment %d has no name", ErrInvalidPattern, i)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidPattern, name)
			}
			seen[name] = struct{}{}
			segments = append(segments, segment{kind: segSingle, value: name})
			filter = append(filter, "+")
			paramCount++

		case part != "" && part[0] == byte(multiMarker):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: parameter segment %d has no name", ErrInvalidPattern, i)
			}
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: multi-level parameter %q must be the final segment", ErrInvalidPattern, name)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidPattern, name)
			}
			seen[name] = struct{}{}
			segments = append(segments, segment{kind: segMulti, value: name})
			filter = append(filter, "#")
			paramCount++

		default:
			// Literal segment. The wildcard characters are only meaningful as
			// parameter markers at the start of a segment; anywhere else they
			// violate the MQTT topic character rules.
			if strings.ContainsAny(part, "+#") {
				return nil, fmt.Errorf("%w: literal segment %q contains wildcard character", ErrInvalidPattern, part)
			}
			segments = append(segments, segment{kind: segLiteral, value: part})
			filter = append(filter, part)
		}
	}

	return &Pattern{
		raw:        pattern,
		segments:   segments,
		paramCount: paramCount,
		filter:     strings.Join(filter, Separator),
	}, nil
}

// Match tests a concrete topic against the pattern.
//
// A literal segment must equal the corresponding topic segment exactly. A
// single-level parameter matches exactly one non-empty topic segment. A
// multi-level parameter matches one or more remaining topic segments,
// captured as an ordered sequence.
//
// On success the extracted parameters are returned: single-level values as
// string, multi-level values as []string. The second return value reports
// whether the topic matched.
func (p *Pattern) Match(topic string) (Params, bool) {
	parts := strings.Split(topic, Separator)

	var params Params
	if p.paramCount > 0 {
		params = make(Params, p.paramCount)
	} else {
		params = Params{}
	}

	for i, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			if i >= len(parts) || parts[i] != seg.value {
				return nil, false
			}

		case segSingle:
			if i >= len(parts) || parts[i] == "" {
				return nil, false
			}
			params[seg.value] = parts[i]

		case segMulti:
			// Final segment: captures everything that remains, at least one
			// segment.
			if i >= len(parts) {
				return nil, false
			}
			captured := make([]string, len(parts)-i)
			copy(captured, parts[i:])
			params[seg.value] = captured
			return params, true
		}
	}

	// No multi-level tail: the topic must have exactly as many segments as
	// the pattern.
	if len(parts) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// BuildTopic substitutes parameter values into the pattern and returns the
// resulting concrete topic.
//
// The supplied map must contain exactly ParameterCount entries
// (ErrParameterCount otherwise, checked before anything else) and a value
// for every parameter name (ErrMissingParameter). Single-level values must
// be non-empty strings without the segment separator; multi-level values
// must be []string with at least one non-empty segment
// (ErrInvalidParameterValue). Literal segments pass through unchanged.
func (p *Pattern) BuildTopic(params Params) (string, error) {
	if len(params) != p.paramCount {
		return "", fmt.Errorf("%w: pattern %q wants %d parameters, got %d",
			ErrParameterCount, p.raw, p.paramCount, len(params))
	}

	out := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			out = append(out, seg.value)

		case segSingle:
			raw, ok := params[seg.value]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingParameter, seg.value)
			}
			value, ok := raw.(string)
			if !ok || value == "" || strings.Contains(value, Separator) {
				return "", fmt.Errorf("%w: %q must be a non-empty string without %q",
					ErrInvalidParameterValue, seg.value, Separator)
			}
			out = append(out, value)

		case segMulti:
			raw, ok := params[seg.value]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingParameter, seg.value)
			}
			levels, ok := raw.([]string)
			if !ok || len(levels) == 0 {
				return "", fmt.Errorf("%w: %q must be a non-empty []string",
					ErrInvalidParameterValue, seg.value)
			}
			for _, level := range levels {
				if level == "" || strings.Contains(level, Separator) {
					return "", fmt.Errorf("%w: %q contains an empty or nested segment",
						ErrInvalidParameterValue, seg.value)
				}
			}
			out = append(out, levels...)
		}
	}

	return strings.Join(out, Separator), nil
}

// ParameterCount returns the number of parameter segments in the pattern.
// Single- and multi-level parameters each count once, regardless of how many
// topic segments a multi-level parameter captures.
func (p *Pattern) ParameterCount() int {
	return p.paramCount
}

// Filter returns the MQTT wildcard form of the pattern, suitable for broker
// subscriptions.
//
// Example: "devices/+deviceId/config/#keys" → "devices/+/config/#"
func (p *Pattern) Filter() string {
	return p.filter
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// Params maps parameter names to values extracted from a matched topic or
// supplied to BuildTopic. Single-level parameters bind a string, multi-level
// parameters bind a []string of captured segments in order.
type Params map[string]any

// Get returns the single-level value bound to name.
func (p Params) Get(name string) (string, bool) {
	value, ok := p[name].(string)
	return value, ok
}

// Levels returns the multi-level value bound to name.
func (p Params) Levels(name string) ([]string, bool) {
	levels, ok := p[name].([]string)
	return levels, ok
}
