package util

import (
	"os"
	"strings"
)

var isDebug *bool

func IsDebug() bool {
	if isDebug == nil {
		dashforgeDebug := os.Getenv("DASHFORGE_DEBUG")
		d := dashforgeDebug == "1" || strings.EqualFold(dashforgeDebug, "true")
		isDebug = &d
	}

	return *isDebug
}
