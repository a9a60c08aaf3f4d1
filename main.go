package main

import (
	"github.com/stleox/seecov/pkg/cmd"
)

func main() {
	cmd.Execute()
}
