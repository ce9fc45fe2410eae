// Package archive implements tsar's container format (spec §6): a ZIP file
// carrying a reserved bundle-metadata entry and one entry per distinct
// content-addressed chunk, plus the Writer/Reader APIs built over it.
// Grounded on the teacher pack's own use of archive/zip as a blob-packing
// container (no ecosystem ZIP library appears anywhere in the retrieval
// pack, so tsar follows that same stdlib choice).
package archive

import "fmt"

// Version is embedded in the archive's fixed ZIP comment, so a byte-grep of
// any tsar file identifies the writing implementation's version.
const Version = "0.1.0"

// Comment returns the fixed end-of-central-directory comment tsar writes
// into every archive (spec §6).
func Comment() string {
	return fmt.Sprintf("tsar v%s", Version)
}

// metadataEntryName is the reserved ZIP entry holding the serialized Bundle.
const metadataEntryName = ".tsar/bundle"
