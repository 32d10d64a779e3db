package main

import (
	"os"

	specialistcmder "github.com/papercomputeco/specialist/cmd/specialist"
)

func main() {
	cmd := specialistcmder.NewSpecialistCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
