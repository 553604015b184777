package template

import (
	"os"

	"github.com/BurntSushi/toml"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
)

// catalogFile is the on-disk TOML shape:
//
//	[[template]]
//	id = "llm.summarize"
//	name = "Summarize"
//	category = "llm"
//
//	[[template.inputs]]
//	key = "text"
//	dataType = "text"
//	required = true
type catalogFile struct {
	Templates []*Template `toml:"template"`
}

// LoadFile reads a TOML catalog file and registers its templates into
// the registry. Existing ids are replaced, so a file can override
// builtins.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidTemplate, err, "read template catalog %s", path)
	}

	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidTemplate, err, "parse template catalog %s", path)
	}

	for _, t := range file.Templates {
		if err := r.Register(t); err != nil {
			return flowerrors.Wrap(flowerrors.ErrCodeInvalidTemplate, err, "register template from %s", path)
		}
	}
	return nil
}
