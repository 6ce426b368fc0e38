package main

import (
	"github.com/ColonelBlimp/qrsdetect/cmd"
	"github.com/ColonelBlimp/qrsdetect/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
