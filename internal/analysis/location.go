package analysis

import (
	"path"
	"strings"
)

// Locator classifies file paths against directory conventions: feature
// code ("features/auth/...") versus shared code ("shared/ui/..."). The
// clustering engine uses the classification for its hard-separation
// rules; the extractor uses it for the file-structure heuristic.
type Locator struct {
	featureDirs map[string]bool
	sharedDirs  map[string]bool
}

func NewLocator(featureDirs, sharedDirs []string) *Locator {
	l := &Locator{
		featureDirs: make(map[string]bool, len(featureDirs)),
		sharedDirs:  make(map[string]bool, len(sharedDirs)),
	}
	for _, d := range featureDirs {
		l.featureDirs[strings.ToLower(d)] = true
	}
	for _, d := range sharedDirs {
		l.sharedDirs[strings.ToLower(d)] = true
	}
	return l
}

// FeatureDirOf returns the feature unit directory of a path: the
// convention segment plus its immediate child ("src/features/auth" for
// "src/features/auth/api/login.ts"). Empty when no convention segment
// with a child exists.
func (l *Locator) FeatureDirOf(relPath string) string {
	segments := strings.Split(path.Dir(relPath), "/")
	for i, seg := range segments {
		if l.featureDirs[strings.ToLower(seg)] && i+1 < len(segments) {
			return strings.Join(segments[:i+2], "/")
		}
	}
	return ""
}

// FeatureName returns the feature unit's own name ("auth"), or "".
func (l *Locator) FeatureName(relPath string) string {
	dir := l.FeatureDirOf(relPath)
	if dir == "" {
		return ""
	}
	return path.Base(dir)
}

// IsShared reports whether any directory segment matches a shared-code
// convention. A path inside a feature directory is never shared:
// feature classification wins.
func (l *Locator) IsShared(relPath string) bool {
	if l.FeatureDirOf(relPath) != "" {
		return false
	}
	for _, seg := range strings.Split(path.Dir(relPath), "/") {
		if l.sharedDirs[strings.ToLower(seg)] {
			return true
		}
	}
	return false
}

// SharedDirOf returns the directory of a shared-classified file, or "".
func (l *Locator) SharedDirOf(relPath string) string {
	if !l.IsShared(relPath) {
		return ""
	}
	return path.Dir(relPath)
}
