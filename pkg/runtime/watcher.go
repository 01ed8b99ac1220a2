package runtime

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/logrusorgru/aurora"

	"github.com/dashforge/dashforge/pkg/config"
	"github.com/dashforge/dashforge/pkg/spec"
	"github.com/dashforge/dashforge/pkg/validator"
)

func ensureSpecsPathExists() error {
	if _, err := os.Stat(config.SpecsPath()); os.IsNotExist(err) {
		err := os.MkdirAll(config.SpecsPath(), 0766)
		if err != nil {
			return err
		}
	}
	return nil
}

// watchSpecs validates dashboard spec manifests as they are authored,
// giving the same feedback as POST /validate without a round trip.
func watchSpecs() error {
	specsDir := config.SpecsPath()
	if err := ensureSpecsPathExists(); err != nil {
		// Ignore this error, just don't watch
		return nil
	}

	go func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Println(fmt.Errorf("error starting '%s' watcher: %w", specsDir, err))
		}
		defer watcher.Close()

		if err := watcher.Add(specsDir); err != nil {
			log.Println(fmt.Errorf("error starting '%s' watcher: %w", specsDir, err))
		}
		for {
			select {
			case event := <-watcher.Events:
				err := processNotifyEvent(event)
				if err != nil {
					log.Println(err)
				}
			case err := <-watcher.Errors:
				log.Println(fmt.Errorf("error from '%s' watcher: %w", specsDir, err))
			}
		}
	}()

	return nil
}

func processNotifyEvent(event fsnotify.Event) error {
	specPath := event.Name
	if filepath.Ext(specPath) != ".json" {
		// Ignore non-JSON files
		return nil
	}

	switch event.Op {
	case fsnotify.Create, fsnotify.Write:
		doc, err := spec.LoadFromPath(specPath)
		if err != nil {
			return err
		}
		printValidationResult(filepath.Base(specPath), validator.Validate(doc))
	}

	return nil
}

func printValidationResult(name string, result *validator.Result) {
	if result.Valid {
		fmt.Println(aurora.Green(fmt.Sprintf("✓ %s is valid (%d sections, %d components)",
			name, result.Summary.SectionsCount, result.Summary.ComponentsCount)))
	} else {
		fmt.Println(aurora.Red(fmt.Sprintf("✗ %s is invalid", name)))
		for _, message := range result.Errors {
			fmt.Println(aurora.Red(fmt.Sprintf("  error: %s", message)))
		}
	}
	for _, message := range result.Warnings {
		fmt.Println(aurora.Yellow(fmt.Sprintf("  warning: %s", message)))
	}
}
