package composer

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrTemplateNotFound indicates that none of the candidate template paths
// exist. This is a configuration defect: the submission engine treats it as
// fatal for the whole campaign run, not as a per-recipient failure.
var ErrTemplateNotFound = errors.New("message template not found")

// Lookup resolves message template sources from a filesystem. Resolution
// walks an ordered candidate list; the first existing path wins.
type Lookup struct {
	fsys fs.FS
}

// NewLookup creates a template lookup over the given filesystem.
func NewLookup(fsys fs.FS) *Lookup {
	return &Lookup{fsys: fsys}
}

// Resolve returns the source of the first candidate path that exists.
func (l *Lookup) Resolve(candidates []string) (string, error) {
	for _, path := range candidates {
		data, err := fs.ReadFile(l.fsys, path)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrTemplateNotFound, strings.Join(candidates, ", "))
}

// textCandidates returns the plaintext template paths for a campaign:
// the slug-specific override first, then the generic default.
func textCandidates(slug string) []string {
	if slug == "" {
		return []string{"campaign/message.txt"}
	}
	return []string{
		"campaign/" + slug + "/message.txt",
		"campaign/message.txt",
	}
}

// htmlCandidates returns the HTML template paths for a campaign.
func htmlCandidates(slug string) []string {
	if slug == "" {
		return []string{"campaign/message.html"}
	}
	return []string{
		"campaign/" + slug + "/message.html",
		"campaign/message.html",
	}
}
