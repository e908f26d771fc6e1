package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/achilleasa/lumen/scene"
)

// The built-in scenes selectable by name from the command line.
var builtinScenes = map[string]func() *scene.Scene{
	"cornell-box":       scene.CornellBox,
	"dielectric-sphere": scene.DielectricSphere,
	"glossy-plane":      scene.GlossyPlane,
	"empty-sky":         scene.EmptySky,
}

func sceneByName(name string) (*scene.Scene, error) {
	ctor, exists := builtinScenes[name]
	if !exists {
		names := make([]string, 0, len(builtinScenes))
		for known := range builtinScenes {
			names = append(names, known)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown scene %q; available scenes: %s", name, strings.Join(names, ", "))
	}
	return ctor(), nil
}
