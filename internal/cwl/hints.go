// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package cwl

import (
	"fmt"
	"strings"
)

// Application requirement classes. Hint classes may carry a namespace
// prefix, so matching is by suffix.
const (
	RequirementDocker  = "DockerRequirement"
	RequirementWPS1    = "WPS1Requirement"
	RequirementESGF    = "ESGF-CWTRequirement"
	RequirementBuiltin = "BuiltinRequirement"
)

var applicationClasses = []string{
	RequirementDocker,
	RequirementWPS1,
	RequirementESGF,
	RequirementBuiltin,
}

// Application identifies the execution backend of a CommandLineTool.
type Application struct {
	Class string

	// Docker.
	Image string

	// Remote WPS-1 / ESGF-CWT.
	Provider string
	Process  string
	APIKey   string
}

func applicationFrom(req Requirement) *Application {
	for _, class := range applicationClasses {
		if !strings.HasSuffix(req.Class, class) {
			continue
		}
		app := &Application{Class: class}
		if image, ok := req.Params["dockerPull"].(string); ok {
			app.Image = image
		}
		if provider, ok := req.Params["provider"].(string); ok {
			app.Provider = provider
		}
		if process, ok := req.Params["process"].(string); ok {
			app.Process = process
		}
		if key, ok := req.Params["api_key"].(string); ok {
			app.APIKey = key
		}
		return app
	}
	return nil
}

// Application selects the single application class declared by the
// document's hints and requirements. Declaring more than one is an error;
// declaring none returns nil (a plain CommandLineTool).
func (d *Document) Application() (*Application, error) {
	var found *Application
	for _, req := range append(append([]Requirement{}, d.Requirements...), d.Hints...) {
		app := applicationFrom(req)
		if app == nil {
			continue
		}
		if found != nil && found.Class != app.Class {
			return nil, &TypeError{Reason: fmt.Sprintf(
				"conflicting application requirements %q and %q", found.Class, app.Class)}
		}
		found = app
	}
	return found, nil
}
