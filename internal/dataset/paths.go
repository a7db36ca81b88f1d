package dataset

import (
	"strings"

	"github.com/starford/mosaic/internal/models"
)

// ScratchName is the fixed scratch file that holds the second-to-last
// dataset while a swap is in flight.
const ScratchName = "data.tmp"

const (
	liveExt   = ".json"
	backupExt = ".bak"
)

// File roles reported by Paths.Role.
const (
	RoleLive    = "live"
	RoleBackup  = "backup"
	RoleScratch = "scratch"
	RoleStaging = "staging"
	RoleOther   = "other"
)

// Paths names the files of one dataset inside the dataset directory.
type Paths struct {
	Name    string
	Live    string
	Backup  string
	Scratch string
}

// NewPaths derives file names from the dataset base name.
func NewPaths(name string) Paths {
	return Paths{
		Name:    name,
		Live:    name + liveExt,
		Backup:  name + backupExt,
		Scratch: ScratchName,
	}
}

// Staging returns the dated download target for d, e.g. mosaic_2024-03-01.json.
func (p Paths) Staging(d models.Date) string {
	return p.Name + "_" + d.String() + liveExt
}

// Role classifies a file name.
func (p Paths) Role(file string) string {
	switch file {
	case p.Live:
		return RoleLive
	case p.Backup:
		return RoleBackup
	case p.Scratch:
		return RoleScratch
	}
	if rest, ok := strings.CutPrefix(file, p.Name+"_"); ok {
		if date, ok := strings.CutSuffix(rest, liveExt); ok {
			if _, err := models.ParseDate(date); err == nil {
				return RoleStaging
			}
		}
	}
	return RoleOther
}
