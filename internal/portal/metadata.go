package portal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/portal-labs/portals/internal/fsutil"
)

// MetadataFile marks a portal directory as managed.
const MetadataFile = ".portal-config.json"

// SourceRegistry is the provenance tag for portals installed from the registry.
const SourceRegistry = "registry"

// Metadata is the content of MetadataFile. Fields the tool does not know
// about are kept in Extra and written back unchanged.
type Metadata struct {
	Name            string     `json:"name"`
	Theme           string     `json:"theme"`
	Repo            string     `json:"repo"`
	Version         string     `json:"version"`
	InstalledAt     time.Time  `json:"installedAt"`
	Source          string     `json:"source"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	PreviousVersion string     `json:"previousVersion,omitempty"`
	BackupLocation  string     `json:"backupLocation,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// metadataFields mirrors Metadata without its methods, for plain decoding.
type metadataFields Metadata

var knownFields = map[string]bool{
	"name": true, "theme": true, "repo": true, "version": true,
	"installedAt": true, "source": true, "updatedAt": true,
	"previousVersion": true, "backupLocation": true,
}

// UnmarshalJSON decodes the known fields and stashes the rest in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*m = Metadata(fields)
	for k, v := range all {
		if knownFields[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}

// MarshalJSON writes the known fields plus anything carried in Extra.
func (m Metadata) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(metadataFields(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// RecordUpdate stamps an update on top of the existing fields.
func (m *Metadata) RecordUpdate(at time.Time, newVersion, backupPath string) {
	m.PreviousVersion = m.Version
	if newVersion != "" {
		m.Version = newVersion
	}
	m.UpdatedAt = &at
	m.BackupLocation = backupPath
}

// MetadataPath returns the metadata file location for a portal directory.
func MetadataPath(dir string) string {
	return filepath.Join(dir, MetadataFile)
}

// ReadMetadata loads the metadata file from dir. The returned error wraps
// fs.ErrNotExist when the directory is not managed.
func ReadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(MetadataPath(dir))
	if err != nil {
		return nil, fmt.Errorf("reading portal metadata: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MetadataPath(dir), err)
	}
	return &m, nil
}

// WriteMetadata atomically writes m into dir.
func WriteMetadata(dir string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling portal metadata: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(MetadataPath(dir), data, 0644); err != nil {
		return fmt.Errorf("writing portal metadata: %w", err)
	}
	return nil
}
