package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/loadgen"
)

func main() {
	err := loadgen.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
	}
	os.Exit(common.ExitCode(err))
}
