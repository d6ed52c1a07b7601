package main

import (
	"github.com/zhibeky/quran-ai/cmd"
)

func main() {
	cmd.Execute()
}
