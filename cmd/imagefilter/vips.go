//go:build vips

package main

import (
	imagefilter "github.com/Skryldev/image-filter"
	"github.com/Skryldev/image-filter/adapters/vips"
)

func init() {
	setupHooks = append(setupHooks, func(p *imagefilter.Processor) (func(), error) {
		backend := vips.NewBackend(vips.BackendConfig{MaxWorkers: cfg.Workers, AutoRotate: true})
		if err := vips.RegisterVipsBackend(p.Registry(), backend); err != nil {
			backend.Shutdown()
			return nil, err
		}
		return backend.Shutdown, nil
	})
}
