package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gopherjs/tracemap"
	"github.com/gopherjs/tracemap/internal/errlist"
	"github.com/gopherjs/tracemap/remap"
)

func remapCommand() *cobra.Command {
	var (
		excludeContent bool
		watch          bool
	)

	cmd := &cobra.Command{
		Use:   "remap <map.json>...",
		Short: "Flatten a chain of source maps",
		Long: `Flatten a chain of source maps.

For each input map, sources that have a ".map" file next to them on disk
are loaded and composed transitively, producing "<input>.remapped" that
maps the generated file straight to the ultimate originals.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := remapAll(args, excludeContent); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchLoop(args, excludeContent)
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&excludeContent, "exclude-content", false, "omit sourcesContent from the output")
	fs.BoolVarP(&watch, "watch", "w", false, "re-run whenever an input map changes")
	return cmd
}

// remapAll validates every input first, collecting all parse failures,
// then composes the valid ones concurrently.
func remapAll(paths []string, excludeContent bool) error {
	var errList errlist.ErrorList
	inputs := map[string][]byte{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err == nil {
			_, err = tracemap.New(data, path)
		}
		if err != nil {
			errList = errList.Append(fmt.Errorf("%s: %w", path, err))
			continue
		}
		inputs[path] = data
	}

	var group errgroup.Group
	for path, data := range inputs {
		path, data := path, data
		group.Go(func() error {
			if err := remapFile(path, data, excludeContent); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debugf("remapped %s", path)
			return nil
		})
	}
	errList = errList.Append(group.Wait())
	return errList.ErrOrNil()
}

func remapFile(path string, data []byte, excludeContent bool) error {
	composed, err := remap.Remap(data, diskLoader, remap.Options{ExcludeContent: excludeContent})
	if err != nil {
		return err
	}
	out, err := json.Marshal(composed)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".remapped", append(out, '\n'), 0644)
}

// diskLoader treats a source with a sibling "<name>.map" file as a
// transformation step and everything else as an original.
func diskLoader(file string, ctx *remap.SourceContext) (*tracemap.TraceMap, error) {
	path := strings.TrimPrefix(file, "file://")
	data, err := os.ReadFile(path + ".map")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return tracemap.New(data, path+".map")
}

func watchLoop(paths []string, excludeContent bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return err
		}
	}
	log.Infof("watching %d map(s) for changes", len(paths))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debugf("%s changed, remapping", event.Name)
			if err := remapAll([]string{event.Name}, excludeContent); err != nil {
				log.Error(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(err)
		}
	}
}
