package commands

import (
	"github.com/josephlewis42/hooksh/core/interp"
)

// True does nothing, successfully.
func True(bc *interp.Context) interp.ExecuteResult {
	return code(0)
}

// False does nothing, unsuccessfully.
func False(bc *interp.Context) interp.ExecuteResult {
	return code(1)
}

func init() {
	addBuiltin("true", True)
	addBuiltin("false", False)
}
