// Command api serves the service order web application without the CLI.
package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/serviceorders/internal/app"
)

func main() {
	fx.New(app.HTTP).Run()
}
