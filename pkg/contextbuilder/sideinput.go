package contextbuilder

import (
	"os"
	"strings"
	"time"
)

// FileSideInput renders the contents of an external, read-only file
// as a side section — the shape named in the spec's out-of-scope
// "time-tracking side files" collaborator. The engine only reads this
// file; whatever process maintains it (a time-tracking tool, a habit
// tracker) is entirely outside this module.
type FileSideInput struct {
	name string
	path string
}

// NewFileSideInput returns a side input that renders path's contents
// under the given section name. If path is empty, Render always
// returns "" and the section is omitted.
func NewFileSideInput(name, path string) *FileSideInput {
	return &FileSideInput{name: name, path: path}
}

func (f *FileSideInput) Name() string { return f.name }

func (f *FileSideInput) Render(_ time.Time) (string, error) {
	if f.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}
