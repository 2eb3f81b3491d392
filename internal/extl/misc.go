package extl

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// FeatureExt is the file extension of feature modules.
const FeatureExt = ".js"

var (
	ErrFeatureNotFound    = errors.New("feature not found")
	ErrInvalidFeatureName = errors.New("invalid feature name")
)

// ValidateName rejects names that would resolve outside the feature
// directory.
func ValidateName(name string) error {
	if name == "" || !utf8.ValidString(name) || strings.ContainsAny(name, `\:`) || path.IsAbs(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFeatureName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidFeatureName, name)
		}
	}
	return nil
}

// featureName maps a require() argument to a feature name, accepting an
// optional leading "./" and trailing ".js".
func featureName(arg string) string {
	arg = strings.TrimPrefix(arg, "./")
	return strings.TrimSuffix(arg, FeatureExt)
}
