package config

import (
	"os"
	"path"
)

var (
	appPath          string
	appDashforgePath string
	specsPath        string
)

func AppPath() string {
	if appPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		appPath = cwd
	}

	return appPath
}

func AppDashforgePath() string {
	if appDashforgePath == "" {
		appDashforgePath = path.Join(AppPath(), ".dashforge")
	}
	return appDashforgePath
}

// SpecsPath is the directory watched for dashboard spec manifests in
// development mode.
func SpecsPath() string {
	if specsPath == "" {
		specsPath = path.Join(AppDashforgePath(), "specs")
	}
	return specsPath
}
