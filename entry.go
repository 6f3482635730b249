package bootstrap

import (
	"github.com/GoCodeAlone/bootstrap/properties"
	"github.com/GoCodeAlone/bootstrap/registry"
)

// Runnable is the entry contract. The runtime selects one implementation,
// constructs it and calls Run with the loaded configuration and the
// process arguments, passed through unmodified.
type Runnable interface {
	Run(cfg properties.Properties, args []string)
}

// EntryContract is the contract name of Runnable.
var EntryContract = registry.ContractOf[Runnable]()

func init() {
	if _, err := registry.DeclareContract[Runnable](registry.Default()); err != nil {
		panic(err)
	}
}
