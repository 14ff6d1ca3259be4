package main

import (
	"github.com/mj1618/wizard-pilot/cmd"

	_ "github.com/mj1618/wizard-pilot/internal/platform/windows"
)

func main() {
	cmd.Execute()
}
