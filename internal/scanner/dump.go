package scanner

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"mediadex/internal/tracks"
)

// dumpEntry is one YAML document written by a dry run.
type dumpEntry struct {
	Path    string       `yaml:"path"`
	DexType string       `yaml:"dex_type,omitempty"`
	Error   string       `yaml:"error,omitempty"`
	Tracks  []tracks.Raw `yaml:"tracks,omitempty"`
}

// dumper serializes dry-run entries as a YAML document stream.
type dumper struct {
	mu  sync.Mutex
	enc *yaml.Encoder
}

func newDumper(w io.Writer) *dumper {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &dumper{enc: enc}
}

func (d *dumper) write(entry dumpEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enc.Encode(entry); err != nil {
		return fmt.Errorf("write dry-run entry: %w", err)
	}
	return nil
}

func (d *dumper) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enc.Close()
}
