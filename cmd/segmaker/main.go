// Command segmaker builds score segments from CUE definitions.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/roach88/segmaker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
