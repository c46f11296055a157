package app

import (
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/modules/env_vars"
	"github.com/specialistvlad/frametasks/modules/http_client"
	"github.com/specialistvlad/frametasks/modules/s3"
	"github.com/specialistvlad/frametasks/modules/text"
)

// coreModules returns the modules compiled into the frametasks binary.
func coreModules() []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&http_client.Module{},
		&s3.Module{},
		&text.Module{},
	}
}
