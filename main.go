package main

import (
	"github.com/anoixa/facility-image-store/cmd"
)

func main() {
	cmd.Execute()
}
