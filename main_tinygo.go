//go:build tinygo

package main

import (
	"todowrist/app"
	"todowrist/hal"
)

func main() {
	app.Run(hal.New())
}
