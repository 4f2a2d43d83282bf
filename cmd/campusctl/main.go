package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/campus-portal-backend/internal/tools/campusctl"
	"github.com/sandeepkv93/campus-portal-backend/internal/tools/common"
)

func main() {
	if err := campusctl.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(common.ExitCode(err))
	}
}
