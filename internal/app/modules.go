package app

import (
	"opnet/internal/registry"
	"opnet/modules/addint"
	"opnet/modules/envvars"
	"opnet/modules/httpreq"
	"opnet/modules/printer"
	"opnet/modules/rng"
	"opnet/modules/shell"
	"opnet/modules/socketio"
)

// coreModules lists every compiled-in operator package. The worker
// subcommand registers the same set, so refs resolve identically on both
// sides of the process boundary.
func coreModules() []registry.Module {
	return []registry.Module{
		&addint.Module{},
		&envvars.Module{},
		&httpreq.Module{},
		&printer.Module{},
		&rng.Module{},
		&shell.Module{},
		&socketio.Module{},
	}
}
