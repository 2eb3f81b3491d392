package scheduler

import "fmt"

// Feature identifies a loadable unit of host functionality.
type Feature string

// Kind discriminates the Action variants.
type Kind uint8

const (
	// KindLoadCache makes the dependency cache resident.
	KindLoadCache Kind = iota + 1
	// KindRequire loads a feature as one unit and records what it pulled in.
	KindRequire
	// KindIdleRequire is a deferred load request, subject to expansion.
	KindIdleRequire
	// KindDependencyRequire loads one already-known dependency.
	KindDependencyRequire
)

func (k Kind) String() string {
	switch k {
	case KindLoadCache:
		return "load-cache"
	case KindRequire:
		return "require"
	case KindIdleRequire:
		return "idle-require"
	case KindDependencyRequire:
		return "dependency-require"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Action is one unit of deferred work. Build values with LoadCache, Require,
// IdleRequire or DependencyRequire; Feature is empty for KindLoadCache.
type Action struct {
	Kind    Kind
	Feature Feature
}

func LoadCache() Action { return Action{Kind: KindLoadCache} }

func Require(f Feature) Action { return Action{Kind: KindRequire, Feature: f} }

func IdleRequire(f Feature) Action { return Action{Kind: KindIdleRequire, Feature: f} }

func DependencyRequire(f Feature) Action {
	return Action{Kind: KindDependencyRequire, Feature: f}
}

func (a Action) String() string {
	if a.Kind == KindLoadCache {
		return a.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Feature)
}

// Entry is a queued action with its order key.
type Entry struct {
	Order  float64
	Action Action
	// seq is the insertion sequence, used to break order ties.
	seq uint64
}
