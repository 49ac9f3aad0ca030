package main

import (
	"os"

	"github.com/gitgoal/gitgoal/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
