// Package inspect provides description inspection and codec utilities.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "1/values/STATE")
//   - Resolving paramset and parameter names
//   - Decoding and encoding single parameters
//   - Formatting output for display
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/description"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid numeric value in path")
)

// frameSegment introduces a frame path instead of a channel path.
const frameSegment = "frame"

// Path represents a parsed inspection path.
// Format: [type/]channel/paramset/parameter or [type/]frame/frameID
type Path struct {
	// TypeID selects a description by supported type id (empty for the
	// description already opened).
	TypeID string

	// Channel is the channel index.
	Channel int64

	// Paramset is the parameter set within the channel.
	Paramset description.ParamsetType

	// Parameter is the parameter id as written in the path. Inspector
	// resolves it case-insensitively.
	Parameter string

	// Frame is the frame id (when IsFrame is true).
	Frame string

	// IsFrame indicates this path refers to a frame, not a parameter.
	IsFrame bool

	// IsPartial indicates the path doesn't include a parameter
	// (used for inspect operations that list a channel or set).
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "channel/paramset/parameter" - parameter path
//   - "type/channel/paramset/parameter" - parameter of another description
//   - "frame/frameID" - frame path
//   - "channel/paramset" - partial (for listing parameters)
//   - "channel" - partial (for listing parameter sets)
//
// Channel numbers can be decimal or hex (0x prefix). Paramset names accept
// the schema aliases (master/config, values/variables, link).
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	// Check for invalid patterns
	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(input, "/")
	p := &Path{Raw: input}

	// A leading segment that is neither a channel nor the frame keyword
	// names a device type.
	pathParts := parts
	if !isChannelOrFrame(parts[0]) && len(parts) > 1 {
		p.TypeID = parts[0]
		pathParts = parts[1:]
	}

	if pathParts[0] == frameSegment {
		if len(pathParts) != 2 {
			return nil, fmt.Errorf("%w: frame path needs a frame id", ErrInvalidPath)
		}
		p.IsFrame = true
		p.Frame = pathParts[1]
		return p, nil
	}

	if len(pathParts) > 3 {
		return nil, fmt.Errorf("%w: too many segments", ErrInvalidPath)
	}

	ch, err := parseChannel(pathParts[0])
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	p.Channel = ch

	if len(pathParts) == 1 {
		p.IsPartial = true
		return p, nil
	}

	typ, ok := ResolveParamsetName(pathParts[1])
	if !ok {
		return nil, fmt.Errorf("%w: unknown paramset %q", ErrInvalidPath, pathParts[1])
	}
	p.Paramset = typ

	if len(pathParts) == 2 {
		p.IsPartial = true
		return p, nil
	}

	p.Parameter = pathParts[2]
	return p, nil
}

// String returns the path in canonical form.
func (p *Path) String() string {
	var sb strings.Builder

	if p.TypeID != "" {
		sb.WriteString(p.TypeID)
		sb.WriteString("/")
	}

	if p.IsFrame {
		sb.WriteString(frameSegment)
		sb.WriteString("/")
		sb.WriteString(p.Frame)
		return sb.String()
	}

	sb.WriteString(strconv.FormatInt(p.Channel, 10))

	if p.Paramset == description.ParamsetNone {
		return sb.String()
	}

	sb.WriteString("/")
	sb.WriteString(GetParamsetName(p.Paramset))

	if p.Parameter != "" {
		sb.WriteString("/")
		sb.WriteString(p.Parameter)
	}

	return sb.String()
}

// isChannelOrFrame checks if the string is a channel number or the frame
// keyword.
func isChannelOrFrame(s string) bool {
	if s == frameSegment {
		return true
	}
	_, err := parseChannel(s)
	return err == nil
}

// parseChannel parses a channel index from decimal or hex string.
func parseChannel(s string) (int64, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidNumber, s)
	}
	return int64(v), nil
}
