package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/lk2023060901/objpack-go/cmd/objpack/cmd"
)

func main() {
	cmd.Execute()
}
